package main

import (
	"encoding/json"
	"fmt"

	"mcpbridge/internal/domain"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printSyntax(entries []domain.SyntaxEntry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []domain.SyntaxEntry{}
		}
		return writeJSON(entries)
	}
	fmt.Printf("commands=%d\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("%s\t%s\n", entry.Command, entry.Instruction)
		for _, param := range entry.Params {
			fmt.Printf("  %s (%s)\t%s\n", param.Name, param.Type, param.Description)
		}
	}
	return nil
}

func printResults(results []domain.ExecutionResult, jsonOutput bool) error {
	if jsonOutput {
		payload := make([]map[string]any, 0, len(results))
		for _, result := range results {
			entry := map[string]any{
				"id":      result.Request.ID,
				"command": result.Request.Command,
			}
			if result.Failed() {
				entry["error"] = result.Err
			} else {
				entry["result"] = result.Text
			}
			payload = append(payload, entry)
		}
		return writeJSON(payload)
	}
	for _, result := range results {
		if result.Failed() {
			fmt.Printf("%s: error: %s\n", result.Request.Command, result.Err)
			continue
		}
		fmt.Println(result.Text)
	}
	return nil
}
