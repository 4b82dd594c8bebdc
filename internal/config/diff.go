package config

import "fmt"

// ChangeKind classifies an entry difference.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "+"
	ChangeRemoved  ChangeKind = "-"
	ChangeModified ChangeKind = "~"
)

// Change is one entry that differs between two documents.
type Change struct {
	Kind    ChangeKind
	Section string
	Name    string
}

func (c Change) String() string {
	if c.Name == "" {
		return fmt.Sprintf("%s %s", c.Kind, c.Section)
	}
	return fmt.Sprintf("%s %s.%s", c.Kind, c.Section, c.Name)
}

// Diff lists the entries that differ between from and to, section by
// section in key order. A nil document counts as empty.
func Diff(from, to *Document) []Change {
	if from == nil {
		from = NewDocument()
	}
	if to == nil {
		to = NewDocument()
	}

	var changes []Change
	changes = append(changes, diffSection("agents", from.Agents, to.Agents)...)
	changes = append(changes, diffSection("providers", from.Providers, to.Providers)...)
	changes = append(changes, diffSection("channels", from.Channels, to.Channels)...)
	if kind, ok := diffSkill(from.Skill, to.Skill); ok {
		changes = append(changes, Change{Kind: kind, Section: "skill"})
	}
	return changes
}

// diffSkill classifies the skill section. An unset skill is absent.
func diffSkill(from, to Skill) (ChangeKind, bool) {
	switch {
	case from == to:
		return "", false
	case from == (Skill{}):
		return ChangeAdded, true
	case to == (Skill{}):
		return ChangeRemoved, true
	default:
		return ChangeModified, true
	}
}

func diffSection[V comparable](section string, from, to map[string]V) []Change {
	var changes []Change
	for _, name := range sortedKeys(from) {
		newV, ok := to[name]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeRemoved, Section: section, Name: name})
		case newV != from[name]:
			changes = append(changes, Change{Kind: ChangeModified, Section: section, Name: name})
		}
	}
	for _, name := range sortedKeys(to) {
		if _, ok := from[name]; !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Section: section, Name: name})
		}
	}
	return changes
}
