// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/proton"
	"github.com/bureau-foundation/nucleus/lib/version"
)

// DefaultExtent is the porcupine extent of networks whose template
// does not set one.
const DefaultExtent = 1024

// Template is the authored description of a network to create, read
// from JSONC (JSON with comments and trailing commas):
//
//	{
//	    // Shared between the build machines.
//	    "identifier": "builders",
//	    "name": "Build cache",
//	    "openness": "closed",
//	    "policy": "private",
//	    "history": true,
//	}
type Template struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Openness   string `json:"openness"`
	Policy     string `json:"policy"`
	Model      string `json:"model,omitempty"`
	History    bool   `json:"history,omitempty"`
	Extent     uint32 `json:"extent,omitempty"`
}

// ParseTemplate strips comments and trailing commas from data and
// decodes the result.
func ParseTemplate(data []byte) (*Template, error) {
	stripped := jsonc.ToJSON(data)
	var template Template
	if err := json.Unmarshal(stripped, &template); err != nil {
		return nil, fmt.Errorf("parsing network template: %w", err)
	}
	if template.Identifier == "" {
		return nil, fmt.Errorf("network template has no identifier")
	}
	if template.Name == "" {
		template.Name = template.Identifier
	}
	if template.Model == "" {
		template.Model = ModelStandard.String()
	}
	if template.Extent == 0 {
		template.Extent = DefaultExtent
	}
	return &template, nil
}

// ReadTemplate reads and parses a template file.
func ReadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	template, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return template, nil
}

// MetaFields builds the meta section of the network the template
// describes.
func (t *Template) MetaFields(administrator cryptography.PublicKey, root proton.Address, rootObject []byte, everybody proton.Address) (MetaFields, error) {
	model, err := ParseModel(t.Model)
	if err != nil {
		return MetaFields{}, err
	}
	return MetaFields{
		Identifier:    t.Identifier,
		Administrator: administrator,
		Model:         model,
		Root:          root,
		RootObject:    rootObject,
		Everybody:     everybody,
		History:       t.History,
		Extent:        t.Extent,
	}, nil
}

// DataFields builds the data section of the network, stamped with
// release and this build's formats.
func (t *Template) DataFields(release version.Version) (DataFields, error) {
	openness, err := ParseOpenness(t.Openness)
	if err != nil {
		return DataFields{}, err
	}
	policy, err := ParsePolicy(t.Policy)
	if err != nil {
		return DataFields{}, err
	}
	return DataFields{
		Name:     t.Name,
		Openness: openness,
		Policy:   policy,
		Version:  release,
		Formats:  CurrentFormats(),
	}, nil
}
