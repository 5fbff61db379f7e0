// Package i18n holds the user-facing strings of the client and picks a
// translation for the configured locale.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	CouldntCreateIdentification = "Couldnt-create-identification"
	CouldntCreateComment        = "Couldnt-create-comment"
	UnknownError                = "Unknown-error"
	UnknownOrganism             = "Unknown-organism"
	AddedToFavorites            = "Added-to-favorites"
	RemovedFromFavorites        = "Removed-from-favorites"
	CommentAdded                = "Comment-added"
	IdentificationAdded         = "Identification-added"
	ViewedFlagsSynced           = "Viewed-flags-synced"
	SignedOut                   = "Signed-out"
	SessionCleared              = "Session-cleared"
)

var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]map[string]string{
	language.English: {
		CouldntCreateIdentification: "Couldn't create identification: %s",
		CouldntCreateComment:        "Couldn't create comment: %s",
		UnknownError:                "Unknown error",
		UnknownOrganism:             "Unknown organism",
		AddedToFavorites:            "Added to favorites",
		RemovedFromFavorites:        "Removed from favorites",
		CommentAdded:                "Comment added",
		IdentificationAdded:         "Identification added",
		ViewedFlagsSynced:           "Synced %d viewed observations",
		SignedOut:                   "Not signed in",
		SessionCleared:              "Local session cleared",
	},
	language.Spanish: {
		CouldntCreateIdentification: "No se pudo crear la identificación: %s",
		CouldntCreateComment:        "No se pudo crear el comentario: %s",
		UnknownError:                "Error desconocido",
		UnknownOrganism:             "Organismo desconocido",
		AddedToFavorites:            "Añadido a favoritos",
		RemovedFromFavorites:        "Eliminado de favoritos",
		CommentAdded:                "Comentario añadido",
		IdentificationAdded:         "Identificación añadida",
		ViewedFlagsSynced:           "%d observaciones vistas sincronizadas",
		SignedOut:                   "No has iniciado sesión",
		SessionCleared:              "Sesión local borrada",
	},
	language.French: {
		CouldntCreateIdentification: "Impossible de créer l'identification : %s",
		CouldntCreateComment:        "Impossible de créer le commentaire : %s",
		UnknownError:                "Erreur inconnue",
		UnknownOrganism:             "Organisme inconnu",
		AddedToFavorites:            "Ajouté aux favoris",
		RemovedFromFavorites:        "Retiré des favoris",
		CommentAdded:                "Commentaire ajouté",
		IdentificationAdded:         "Identification ajoutée",
		ViewedFlagsSynced:           "%d observations vues synchronisées",
		SignedOut:                   "Non connecté",
		SessionCleared:              "Session locale effacée",
	},
}

func init() {
	for tag, msgs := range catalog {
		for key, format := range msgs {
			if err := message.SetString(tag, key, format); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
}

// Messages renders keys for one locale.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns Messages for the closest supported match of locale
// ("es-MX", "fr", ...). Unknown or empty locales fall back to English.
func New(locale string) *Messages {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = supported[idx]
		}
	}
	return &Messages{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the matched language.
func (m *Messages) Tag() language.Tag {
	return m.tag
}

// Sprintf renders a message key with arguments.
func (m *Messages) Sprintf(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

// IdentificationFailed renders the user-facing failure of an identification
// submission. An empty reason renders as the localized "Unknown error".
func (m *Messages) IdentificationFailed(reason string) string {
	if reason == "" {
		reason = m.Sprintf(UnknownError)
	}
	return m.Sprintf(CouldntCreateIdentification, reason)
}

// CommentFailed renders the user-facing failure of a comment submission.
func (m *Messages) CommentFailed(reason string) string {
	if reason == "" {
		reason = m.Sprintf(UnknownError)
	}
	return m.Sprintf(CouldntCreateComment, reason)
}

// Supported lists the locales with a translation.
func Supported() []string {
	out := make([]string, len(supported))
	for i, tag := range supported {
		out[i] = tag.String()
	}
	return out
}
