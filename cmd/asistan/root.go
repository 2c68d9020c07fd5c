package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "asistan"}

	root.AddCommand(serveCMD(), migrateCMD(), ingestCMD(), chatCMD())
	_ = root.Execute()
}
