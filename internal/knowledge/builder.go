// Package knowledge builds the fixed recycling knowledge base that seeds the
// vector index. A small hand-authored table of category → disposal
// instructions is expanded into one semantically enriched document per
// (category, example) pair. Enrichment is a pure function of the fixed
// lookup tables — no external calls are made.
package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// Item is one entry of the expanded knowledge base. Items are generated in
// memory at ingest time and never persisted outside the vector index.
type Item struct {
	// Category is the disposal category (e.g. "organic").
	Category string
	// Instructions is the canonical disposal instruction text for the category.
	Instructions string
	// Example is the item label this entry was generated for.
	Example string
	// Content is the enriched embedding text produced by Enrich.
	Content string
	// Title is a short human-readable label ("<example> - <category>").
	Title string
}

// Build expands the fixed knowledge tables into one Item per
// (category, example) pair. The result is deterministic: categories are
// walked in sorted order so repeated calls yield identical slices.
func Build() []Item {
	categories := make([]string, 0, len(instructions))
	for c := range instructions {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var items []Item
	for _, category := range categories {
		instr := instructions[category]
		for _, example := range examples[category] {
			items = append(items, Item{
				Category:     category,
				Instructions: instr,
				Example:      example,
				Content:      Enrich(example, category, instr),
				Title:        fmt.Sprintf("%s - %s", example, category),
			})
		}
	}
	return items
}

// Enrich synthesizes the embedding text for a single (example, category,
// instructions) triple. Richer natural-language content makes the resulting
// embeddings cluster more accurately by category than bare item names would.
func Enrich(example, category, instr string) string {
	synText := noSynonyms
	if syn := synonyms[example]; len(syn) > 0 {
		synText = strings.Join(syn, ", ")
	}

	reason, ok := reasoning[category]
	if !ok {
		reason = genericReasoning
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s. ", example, instr)
	fmt.Fprintf(&b, "Dieser Gegenstand gehört eindeutig zur Kategorie '%s', %s. ", category, reason)
	fmt.Fprintf(&b, "Synonyme: %s. ", synText)
	fmt.Fprintf(&b, "Verwandte Beispiele: %s. ", strings.Join(related[category], ", "))
	fmt.Fprintf(&b, "Entsorgungsregel: %s. ", instr)
	fmt.Fprintf(&b, "Beschreibung: %s ist ein typischer Vertreter der Kategorie '%s'.", example, category)
	return b.String()
}

// Instructions returns the canonical disposal instructions for a category
// and whether the category is known.
func Instructions(category string) (string, bool) {
	instr, ok := instructions[category]
	return instr, ok
}

// ImpactNote returns the environmental impact note for a category, falling
// back to a generic note for unknown categories.
func ImpactNote(category string) string {
	if note, ok := impacts[category]; ok {
		return note
	}
	return impactFallback
}

// Categories returns the sorted list of known disposal categories.
func Categories() []string {
	out := make([]string, 0, len(instructions))
	for c := range instructions {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
