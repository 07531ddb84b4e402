package component_test

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/c360/eventscape/component"
)

// ExampleGenerateConfigSchema demonstrates how to use schema tags to auto-generate
// configuration schemas from struct definitions
func ExampleGenerateConfigSchema() {
	// Define a configuration struct with schema tags
	type ComponentConfig struct {
		// Basic configuration
		Name    string `json:"name"    schema:"type:string,description:Component name,category:basic"`
		TickMS  int    `json:"tick_ms" schema:"type:int,description:Tick interval in milliseconds,min:16,max:5000,default:250,category:basic"`
		Enabled bool   `json:"enabled" schema:"type:bool,description:Enable component,default:true,category:basic"`

		// Advanced configuration
		Retention string `json:"retention" schema:"type:string,description:Event retention duration,default:300s,category:advanced"`
		LogLevel  string `json:"log_level" schema:"type:enum,description:Logging level,enum:debug|info|warn|error,default:info,category:advanced"`

		// Required field
		Subject string `json:"subject" schema:"required,type:string,description:NATS subject pattern"`
	}

	// Generate the schema at init time (one-time reflection cost)
	schema := component.GenerateConfigSchema(reflect.TypeOf(ComponentConfig{}))

	// The generated schema can be used for validation, UI generation, etc.
	schemaJSON, _ := json.MarshalIndent(schema, "", "  ")
	fmt.Println(string(schemaJSON))

	// Output will show the generated schema with all properties
}

// ExampleParseSchemaTag demonstrates parsing individual schema tags
func ExampleParseSchemaTag() {
	// Parse a simple field tag
	tag := "type:int,description:Store capacity,min:1,max:100000,default:100"
	directives, err := component.ParseSchemaTag(tag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Type: %s\n", directives.Type)
	fmt.Printf("Description: %s\n", directives.Description)
	fmt.Printf("Min: %d\n", *directives.Min)
	fmt.Printf("Max: %d\n", *directives.Max)
	fmt.Printf("Default: %s\n", directives.Default)

	// Output:
	// Type: int
	// Description: Store capacity
	// Min: 1
	// Max: 100000
	// Default: 100
}

// ExampleParseSchemaTag_enum demonstrates parsing enum tags
func ExampleParseSchemaTag_enum() {
	tag := "type:enum,description:Log level,enum:debug|info|warn|error,default:info"
	directives, _ := component.ParseSchemaTag(tag)

	fmt.Printf("Type: %s\n", directives.Type)
	fmt.Printf("Description: %s\n", directives.Description)
	fmt.Printf("Enum values: %v\n", directives.Enum)
	fmt.Printf("Default: %s\n", directives.Default)

	// Output:
	// Type: enum
	// Description: Log level
	// Enum values: [debug info warn error]
	// Default: info
}

// ExampleParseSchemaTag_flags demonstrates boolean flags
func ExampleParseSchemaTag_flags() {
	tag := "required,readonly,type:string,description:System identifier"
	directives, _ := component.ParseSchemaTag(tag)

	fmt.Printf("Type: %s\n", directives.Type)
	fmt.Printf("Required: %v\n", directives.Required)
	fmt.Printf("ReadOnly: %v\n", directives.ReadOnly)

	// Output:
	// Type: string
	// Required: true
	// ReadOnly: true
}
