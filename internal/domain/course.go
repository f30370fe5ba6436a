package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Course is the canonical read model of a stored course document.
//
// Course files were written in several shapes over time: flat
// {title, chapters}, nested under "courseOutline" (top level or inside
// "content"), "content.courseContent", and with description either a string
// or a list. NormalizeCourse folds all of them into this one shape.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description []string  `json:"description"`
	Goal        string    `json:"goal,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	Topics      []string  `json:"topics"`
	Chapters    []Chapter `json:"chapters"`
}

// Chapter is one chapter of a course.
type Chapter struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one section of a chapter.
type Section struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

// CourseSummary is one entry of the course listing.
type CourseSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SaveCourseRequest is the body of POST /api/course/blob.
type SaveCourseRequest struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

// EditCourseRequest is the body of PUT /api/course/blob. Value stays raw so
// an absent value can be told apart from an explicit null.
type EditCourseRequest struct {
	ID    string          `json:"id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NormalizeCourse converts a decoded course document into the canonical shape.
// id, when non-empty, wins over any id stored in the document.
func NormalizeCourse(id string, doc any) (*Course, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("course document must be an object, got %T", doc)
	}

	content := asObject(root["content"])
	scopes := []map[string]any{
		root,
		asObject(root["courseOutline"]),
		content,
		asObject(content["courseOutline"]),
		asObject(content["courseContent"]),
		asObject(root["courseContent"]),
	}

	course := &Course{
		ID:          id,
		Title:       firstString(scopes, "title"),
		Description: firstStringList(scopes, "description"),
		Goal:        firstString(scopes, "goal"),
		Audience:    firstString(scopes, "audience"),
		Topics:      firstTopics(scopes),
		Chapters:    firstChapters(scopes),
	}
	if course.ID == "" {
		course.ID, _ = root["id"].(string)
	}
	return course, nil
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func firstString(scopes []map[string]any, key string) string {
	for _, scope := range scopes {
		if s, ok := scope[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstStringList(scopes []map[string]any, key string) []string {
	for _, scope := range scopes {
		switch v := scope[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return []string{v}
			}
		case []any:
			if list := stringsOf(v); len(list) > 0 {
				return list
			}
		}
	}
	return []string{}
}

func firstTopics(scopes []map[string]any) []string {
	for _, scope := range scopes {
		items, ok := scope["topics"].([]any)
		if !ok {
			continue
		}
		topics := make([]string, 0, len(items))
		for _, item := range items {
			switch t := item.(type) {
			case string:
				topics = append(topics, t)
			case map[string]any:
				if name, ok := t["topic"].(string); ok {
					topics = append(topics, name)
				}
			}
		}
		if len(topics) > 0 {
			return topics
		}
	}
	return []string{}
}

func firstChapters(scopes []map[string]any) []Chapter {
	for _, scope := range scopes {
		items, ok := scope["chapters"].([]any)
		if !ok {
			continue
		}
		chapters := make([]Chapter, 0, len(items))
		for _, item := range items {
			ch := asObject(item)
			if ch == nil {
				continue
			}
			chapter := Chapter{Sections: []Section{}}
			chapter.Title, _ = ch["title"].(string)
			sections, _ := ch["sections"].([]any)
			for _, s := range sections {
				sec := asObject(s)
				if sec == nil {
					continue
				}
				chapter.Sections = append(chapter.Sections, Section{
					Title:       stringOrJoined(sec["title"]),
					Description: stringOrJoined(sec["description"]),
					Content:     stringOrJoined(sec["content"]),
				})
			}
			chapters = append(chapters, chapter)
		}
		return chapters
	}
	return []Chapter{}
}

func stringOrJoined(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return strings.Join(stringsOf(t), "\n")
	}
	return ""
}

func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
