package observations

import "encoding/json"

// Photo is a remote image reference.
type Photo struct {
	ID  int    `json:"id,omitempty" yaml:"id,omitempty"`
	URL string `json:"url" yaml:"url"`
}

// Taxon is a node of the tree of life as the remote service names it.
type Taxon struct {
	ID                  int    `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	PreferredCommonName string `json:"preferred_common_name,omitempty" yaml:"preferred_common_name,omitempty"`
	Rank                string `json:"rank,omitempty" yaml:"rank,omitempty"`
	DefaultPhoto        *Photo `json:"default_photo,omitempty" yaml:"default_photo,omitempty"`
}

// DisplayName prefers the common name and falls back to the scientific one.
func (t *Taxon) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.PreferredCommonName != "" {
		return t.PreferredCommonName
	}
	return t.Name
}

// ImageURL returns the default photo URL or "".
func (t *Taxon) ImageURL() string {
	if t == nil || t.DefaultPhoto == nil {
		return ""
	}
	return t.DefaultPhoto.URL
}

// UnmarshalJSON accepts both preferred_common_name and preferredCommonName.
func (t *Taxon) UnmarshalJSON(data []byte) error {
	type plain Taxon
	aux := struct {
		*plain
		CommonNameCamel string `json:"preferredCommonName"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.PreferredCommonName == "" {
		t.PreferredCommonName = aux.CommonNameCamel
	}
	return nil
}
