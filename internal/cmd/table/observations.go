package table

import (
	"strconv"
	"time"

	"github.com/agentstation/sightings/pkg/observations"
	"github.com/agentstation/sightings/pkg/reconcile"
)

// bodyWidth caps free text in table cells.
const bodyWidth = 48

// ObservationToTableData renders an observation as property/value rows.
// unknownTaxon is shown when the observation has no taxon yet.
func ObservationToTableData(obs *observations.Observation, unknownTaxon string, now time.Time) Data {
	taxon := obs.Taxon.DisplayName()
	if taxon == "" {
		taxon = unknownTaxon
	}

	rows := [][]string{
		{"UUID", obs.UUID},
		{"Taxon", taxon},
		{"Observer", orDash(obs.User.Handle())},
		{"Place", orDash(obs.PlaceGuess)},
		{"Quality", orDash(obs.QualityGrade)},
		{"Observed", Timestamp(obs.CreatedAt.Time, now)},
		{"Viewed", strconv.FormatBool(obs.Viewed)},
		{"Faves", strconv.Itoa(len(obs.Faves))},
		{"Identifications", strconv.Itoa(len(obs.Identifications))},
		{"Comments", strconv.Itoa(len(obs.Comments))},
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// IdentificationsToTableData renders the visible identification sequence.
func IdentificationsToTableData(entries []reconcile.Entry, now time.Time) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		id := e.Identification
		rows = append(rows, []string{
			ShortUUID(id.UUID),
			orDash(id.Taxon.DisplayName()),
			orDash(id.User.Handle()),
			e.State.String(),
			Timestamp(id.CreatedAt.Time, now),
			orDash(Truncate(id.Body, bodyWidth)),
		})
	}

	return Data{
		Headers: []string{"ID", "Taxon", "User", "State", "Added", "Body"},
		Rows:    rows,
	}
}

// CommentsToTableData renders comments in order.
func CommentsToTableData(comments []observations.Comment, now time.Time) Data {
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{
			ShortUUID(c.UUID),
			orDash(c.User.Handle()),
			Timestamp(c.CreatedAt.Time, now),
			Truncate(c.Body, bodyWidth),
		})
	}

	return Data{
		Headers: []string{"ID", "User", "Added", "Body"},
		Rows:    rows,
	}
}

// UserToTableData renders a user as property/value rows.
func UserToTableData(u *observations.User, tokenSummary string) Data {
	rows := [][]string{
		{"Token", orDash(tokenSummary)},
	}
	if u != nil {
		rows = append(rows,
			[]string{"ID", strconv.Itoa(u.ID)},
			[]string{"Login", orDash(u.Handle())},
			[]string{"Name", orDash(u.Name)},
			[]string{"Icon", orDash(u.URI())},
		)
	}
	return Data{
		Headers: []string{"Property", "Value"},
		Rows:    rows,
	}
}
