package notion

import (
	"strings"
)

// Page one database row as returned by the Notion API.
type Page struct {
	Object         string              `json:"object"`
	ID             string              `json:"id"`
	URL            string              `json:"url"`
	CreatedTime    string              `json:"created_time,omitempty"`
	LastEditedTime string              `json:"last_edited_time,omitempty"`
	Properties     map[string]Property `json:"properties"`
}

// Property typed page property; only the member named by Type is set.
type Property struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *Date          `json:"date,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Date struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// ErrorResponse body of a non-2xx Notion reply.
type ErrorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

func plainText(parts []RichText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// Flatten reduces a property to a plain JSON value. Types without a
// flat form give nil.
func (p Property) Flatten() any {
	switch p.Type {
	case "title":
		return plainText(p.Title)
	case "rich_text":
		return plainText(p.RichText)
	case "select":
		if p.Select == nil {
			return nil
		}
		return p.Select.Name
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return names
	case "date":
		if p.Date == nil {
			return nil
		}
		return p.Date.Start
	case "number":
		if p.Number == nil {
			return nil
		}
		return *p.Number
	case "checkbox":
		return p.Checkbox != nil && *p.Checkbox
	default:
		return nil
	}
}

// FlattenProperties flattens every property of a page.
func FlattenProperties(props map[string]Property) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		out[name] = p.Flatten()
	}
	return out
}

// Title plain text of the named title property, or of the first title-typed
// property when name is not present.
func (pg Page) Title(name string) string {
	if p, ok := pg.Properties[name]; ok && p.Type == "title" {
		return plainText(p.Title)
	}
	for _, p := range pg.Properties {
		if p.Type == "title" {
			return plainText(p.Title)
		}
	}
	return ""
}
