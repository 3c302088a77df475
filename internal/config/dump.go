// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump writes the effective configuration with secrets masked.
func Dump(w io.Writer, s Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(MaskSecrets(s)); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Close()
}
