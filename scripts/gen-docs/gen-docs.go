// kestrel
// (C) 2023, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// The gen-docs tool writes the markdown documentation of the CLI flags and
// the OpenAPI spec of the outcome api into the docs directory.
package main

//go:generate go run gen-docs.go --path ../../docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"gopkg.in/yaml.v3"

	kestrelcmd "github.com/caas-team/kestrel/cmd"
	"github.com/caas-team/kestrel/pkg/api"
	"github.com/caas-team/kestrel/pkg/checks/register"
)

func main() {
	var docPath string

	cmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generates the kestrel documentation",
		RunE: func(_ *cobra.Command, _ []string) error {
			return generate(docPath)
		},
	}
	cmd.PersistentFlags().StringVar(&docPath, "path", "docs", "directory path where the documentation will be created")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// generate writes the flag documentation and the openapi spec to path
func generate(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	kestrel := kestrelcmd.BuildCmd("")
	kestrel.DisableAutoGenTag = true
	if err := doc.GenMarkdownTree(kestrel, path); err != nil {
		return fmt.Errorf("failed to generate markdown: %w", err)
	}

	spec, err := api.GenerateOutcomeSpecs(context.Background(), register.RegisteredChecks)
	if err != nil {
		return fmt.Errorf("failed to generate openapi spec: %w", err)
	}
	b, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal openapi spec: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, "openapi.yaml"), b, 0o600); err != nil {
		return fmt.Errorf("failed to write openapi spec: %w", err)
	}
	return nil
}
