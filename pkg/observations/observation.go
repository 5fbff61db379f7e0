// Package observations defines the species-observation domain model shared
// by the remote API client, the local store and the detail view.
package observations

import (
	"encoding/json"

	"github.com/agentstation/utc"
)

// Observation is a single sighting with its identifications and comments.
// A fresher remote copy always supersedes a local one wholesale.
type Observation struct {
	ID              int              `json:"id,omitempty" yaml:"id,omitempty"`
	UUID            string           `json:"uuid" yaml:"uuid"`
	User            *User            `json:"user,omitempty" yaml:"user,omitempty"`
	Taxon           *Taxon           `json:"taxon,omitempty" yaml:"taxon,omitempty"`
	Identifications []Identification `json:"identifications" yaml:"identifications"`
	Comments        []Comment        `json:"comments" yaml:"comments"`
	Faves           []Fave           `json:"faves,omitempty" yaml:"faves,omitempty"`
	Photos          []Photo          `json:"photos,omitempty" yaml:"photos,omitempty"`
	PlaceGuess      string           `json:"place_guess,omitempty" yaml:"place_guess,omitempty"`
	QualityGrade    string           `json:"quality_grade,omitempty" yaml:"quality_grade,omitempty"`
	Viewed          bool             `json:"viewed" yaml:"viewed"`
	CreatedAt       utc.Time         `json:"created_at" yaml:"created_at"`
}

// Identification proposes a taxon for an observation.
type Identification struct {
	ID        int      `json:"id,omitempty" yaml:"id,omitempty"`
	UUID      string   `json:"uuid" yaml:"uuid"`
	Body      string   `json:"body,omitempty" yaml:"body,omitempty"`
	Taxon     *Taxon   `json:"taxon,omitempty" yaml:"taxon,omitempty"`
	User      *User    `json:"user,omitempty" yaml:"user,omitempty"`
	Vision    bool     `json:"vision" yaml:"vision"`
	CreatedAt utc.Time `json:"created_at" yaml:"created_at"`
}

// Comment is free text attached to an observation.
type Comment struct {
	ID        int      `json:"id,omitempty" yaml:"id,omitempty"`
	UUID      string   `json:"uuid" yaml:"uuid"`
	Body      string   `json:"body" yaml:"body"`
	User      *User    `json:"user,omitempty" yaml:"user,omitempty"`
	CreatedAt utc.Time `json:"created_at" yaml:"created_at"`
}

// Fave records that a user starred an observation.
type Fave struct {
	User User `json:"user" yaml:"user"`
}

// FavedBy reports whether the given user has faved the observation.
func (o *Observation) FavedBy(userID int) bool {
	if o == nil || userID == 0 {
		return false
	}
	for _, f := range o.Faves {
		if f.User.ID == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand across goroutines.
func (o *Observation) Clone() *Observation {
	if o == nil {
		return nil
	}
	c := *o
	c.User = cloneUser(o.User)
	c.Taxon = cloneTaxon(o.Taxon)
	c.Identifications = make([]Identification, len(o.Identifications))
	for i, id := range o.Identifications {
		c.Identifications[i] = id.Clone()
	}
	c.Comments = make([]Comment, len(o.Comments))
	for i, cm := range o.Comments {
		cm.User = cloneUser(cm.User)
		c.Comments[i] = cm
	}
	if o.Faves != nil {
		c.Faves = append([]Fave(nil), o.Faves...)
	}
	if o.Photos != nil {
		c.Photos = append([]Photo(nil), o.Photos...)
	}
	return &c
}

// Clone returns a deep copy of the identification.
func (i Identification) Clone() Identification {
	i.Taxon = cloneTaxon(i.Taxon)
	i.User = cloneUser(i.User)
	return i
}

// UnmarshalJSON accepts camelCase spellings of the display fields.
func (o *Observation) UnmarshalJSON(data []byte) error {
	type plain Observation
	aux := struct {
		*plain
		QualityGradeCamel string `json:"qualityGrade"`
		PlaceGuessCamel   string `json:"placeGuess"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if o.QualityGrade == "" {
		o.QualityGrade = aux.QualityGradeCamel
	}
	if o.PlaceGuess == "" {
		o.PlaceGuess = aux.PlaceGuessCamel
	}
	return nil
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func cloneTaxon(t *Taxon) *Taxon {
	if t == nil {
		return nil
	}
	c := *t
	if t.DefaultPhoto != nil {
		p := *t.DefaultPhoto
		c.DefaultPhoto = &p
	}
	return &c
}
