package main

import (
	"fmt"

	"github.com/antflydb/antfly-go/thesisaf"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List built-in templates and their required metadata fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := thesisaf.NewStaticTemplateRegistry()
		if err != nil {
			return err
		}
		for _, id := range registry.TemplateIDs() {
			fields, err := registry.RequiredFields(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", id)
			for _, f := range fields {
				fmt.Printf("  %s\n", f)
			}
		}
		return nil
	},
}
