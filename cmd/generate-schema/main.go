package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/marmos91/hdfsfile/pkg/config"
)

func main() {
	output := flag.String("o", "config.schema.json", "Output file (\"-\" writes to stdout)")
	flag.Parse()

	schemaJSON, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}

	if *output == "-" {
		_, _ = os.Stdout.Write(append(schemaJSON, '\n'))
		return
	}

	if err := os.WriteFile(*output, schemaJSON, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("JSON schema written to %s\n", *output)
}

// generate reflects config.Config into an inlined JSON schema so editors can
// validate hdfsfile config.yaml files.
func generate() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "hdfsfile Configuration"
	schema.Description = "Configuration schema for the hdfsfile client and CLI"
	schema.Version = "1.0.0"

	return json.MarshalIndent(schema, "", "  ")
}
