// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a Gemini model offered in the model picker.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`

	// Experimental marks preview models that may change without notice
	Experimental bool `json:"experimental,omitempty"`
}

// DefaultModelID is used when neither config nor preferences name a model.
const DefaultModelID = "gemini-2.0-flash-exp"

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models lists the selectable models in display order.
var Models = []ModelInfo{
	{
		ID:           "gemini-2.0-flash-exp",
		Name:         "Gemini 2.0 Flash (Experimental)",
		Description:  "Fast, multimodal, newest generation",
		Experimental: true,
	},
	{
		ID:          "gemini-1.5-pro",
		Name:        "Gemini 1.5 Pro",
		Description: "Most capable for complex reasoning",
	},
	{
		ID:          "gemini-1.5-flash",
		Name:        "Gemini 1.5 Flash",
		Description: "Low latency for everyday tasks",
	},
}

// LookupModel finds a model by ID, case-insensitively.
func LookupModel(id string) (ModelInfo, bool) {
	for _, m := range Models {
		if strings.EqualFold(m.ID, id) {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ModelIDs returns the IDs of all known models.
func ModelIDs() []string {
	ids := make([]string, len(Models))
	for i, m := range Models {
		ids[i] = m.ID
	}
	return ids
}

// String formats the model for lists.
func (m ModelInfo) String() string {
	if m.Experimental {
		return fmt.Sprintf("%s (%s) [experimental]", m.Name, m.ID)
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}
