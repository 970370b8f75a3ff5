package prompts

import (
	"context"
	"strings"

	"promptq/util"
)

const (
	MaxKeywords = 10
	TitleLength = 70

	tokenCutset = ",.;:()[]{}'\""
)

// BatchItem is one prompt handed to a worker.
type BatchItem struct {
	RowID    int      `json:"rowId"`
	Topic    string   `json:"topic"`
	Prompt   string   `json:"prompt"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

// Allocator serves the next topic-block. It never writes.
type Allocator struct {
	reader *RowReader
}

func NewAllocator(reader *RowReader) *Allocator {
	return &Allocator{reader: reader}
}

func (a *Allocator) Next(ctx context.Context) ([]BatchItem, error) {
	rows, _, err := a.reader.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return NextBatch(rows), nil
}

// NextBatch scans rows in physical order for the first unused row and returns
// it together with the following rows that are also unused and share its
// topic. The run ends at the first row that is used, invalid or on another topic.
func NextBatch(rows []PromptRow) []BatchItem {
	start := -1
	for i, row := range rows {
		if row.Valid && row.State() == StateUnused {
			start = i
			break
		}
	}
	if start < 0 {
		return []BatchItem{}
	}

	topic := rows[start].Topic
	batch := []BatchItem{}
	for _, row := range rows[start:] {
		if !row.Valid || row.State() != StateUnused || row.Topic != topic {
			break
		}
		batch = append(batch, BatchItem{
			RowID:    row.RowID,
			Topic:    row.Topic,
			Prompt:   row.Prompt,
			Title:    DeriveTitle(row),
			Keywords: DeriveKeywords(row),
		})
	}
	return batch
}

// DeriveTitle returns the stored title or a prefix of the topic (or prompt).
func DeriveTitle(row PromptRow) string {
	if title := strings.TrimSpace(row.Title); title != "" {
		return title
	}
	source := strings.TrimSpace(row.Topic)
	if source == "" {
		source = strings.TrimSpace(row.Prompt)
	}
	return strings.TrimSpace(util.TruncateRunes(source, TitleLength))
}

// DeriveKeywords returns the row's keyword cells, topped up from the prompt
// text when fewer than MaxKeywords are present. Duplicates are matched
// exactly, so a "Cat" cell does not hide the lower-cased token "cat".
func DeriveKeywords(row PromptRow) []string {
	keywords := make([]string, 0, MaxKeywords)
	seen := make(map[string]struct{}, MaxKeywords)
	add := func(kw string) {
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, kw := range row.Keywords {
		add(kw)
	}
	if len(keywords) < MaxKeywords {
		for _, token := range strings.Fields(row.Prompt) {
			if len(keywords) >= MaxKeywords {
				break
			}
			token = strings.ToLower(strings.Trim(token, tokenCutset))
			if token == "" {
				continue
			}
			add(token)
		}
	}
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}
