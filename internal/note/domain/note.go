package domain

import (
	"sort"
	"strings"

	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

const (
	TypeNormal  = "normal"
	TypeManzana = "manzana"

	DefaultType = TypeNormal
)

// Note is a free-form note. Manzana notes are pinned first in every listing.
type Note struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Type      string      `json:"type"`
	IsManzana bool        `json:"isManzana"`
	CreatedAt interface{} `json:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt"`
}

// Sanitize validates a note payload and produces the Firestore fields to
// write. In partial mode only the keys the client sent are produced; a full
// write fills defaults and stamps createdAt.
func Sanitize(body map[string]interface{}, partial bool, now string) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	var invalid []string

	titleSource, titleSent := payload.FirstPresent(body, "title", "name")
	if !partial || titleSent {
		title := payload.TrimmedString(titleSource)
		if title == "" {
			invalid = append(invalid, "title")
		} else {
			fields["title"] = title
		}
	}

	contentSource, contentSent := payload.FirstPresent(body, "content", "body", "descripcion", "description")
	if !partial || contentSent {
		fields["content"] = payload.TrimmedString(contentSource)
	}

	var noteType string
	if typeSource, sent := payload.FirstPresent(body, "type", "noteType"); sent {
		noteType = strings.ToLower(payload.TrimmedString(typeSource))
	}
	if noteType != "" {
		if noteType != TypeNormal && noteType != TypeManzana {
			invalid = append(invalid, "type")
		} else {
			fields["type"] = noteType
		}
	}

	manzanaSent := false
	if raw, sent := payload.FirstPresent(body, "isManzana"); sent {
		if flag, ok := payload.Bool(raw); ok {
			fields["isManzana"] = flag
			manzanaSent = true
		}
	}

	if !partial {
		if fields["type"] == nil {
			fields["type"] = DefaultType
		}
		if !manzanaSent {
			fields["isManzana"] = fields["type"] == TypeManzana
		}
	} else if !manzanaSent {
		if typed, ok := fields["type"].(string); ok {
			fields["isManzana"] = typed == TypeManzana
		}
	}
	if flag, ok := fields["isManzana"].(bool); ok && flag {
		fields["type"] = TypeManzana
	}

	if len(invalid) > 0 {
		return nil, apperr.Validation("Campos invalidos: " + strings.Join(invalid, ", "))
	}

	fields["updatedAt"] = now
	if !partial {
		fields["createdAt"] = now
		if _, ok := fields["content"]; !ok {
			fields["content"] = ""
		}
	}
	return fields, nil
}

// Sort orders notes for listing: manzana notes first, then most recently
// touched, title and ID breaking ties.
func Sort(notes []Note) []Note {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.IsManzana != b.IsManzana {
			return a.IsManzana
		}
		touchedA := touchedAt(a)
		touchedB := touchedAt(b)
		if touchedA != "" && touchedB != "" && touchedA != touchedB {
			return touchedA > touchedB
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	return notes
}

func touchedAt(note Note) string {
	if value, ok := note.UpdatedAt.(string); ok && value != "" {
		return value
	}
	if value, ok := note.CreatedAt.(string); ok {
		return value
	}
	return ""
}
