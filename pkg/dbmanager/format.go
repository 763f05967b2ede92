package dbmanager

import (
	"fmt"
	"strings"
)

// FormatForPrompt renders the schema as compact text for LLM prompts:
//
//	TABLE users
//	  id integer NOT NULL PRIMARY KEY
//	  name text
//	  FOREIGN KEY org_id -> orgs.id
//	  INDEX users_name_idx
func (s *SchemaInfo) FormatForPrompt() string {
	var b strings.Builder

	for _, name := range s.TableOrder {
		table := s.Tables[name]
		fmt.Fprintf(&b, "TABLE %s\n", table.Name)

		for _, col := range table.Columns {
			fmt.Fprintf(&b, "  %s %s", col.Name, col.Type)
			if !col.Nullable {
				b.WriteString(" NOT NULL")
			}
			if col.PrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}
			if col.Default != "" {
				fmt.Fprintf(&b, " DEFAULT %s", col.Default)
			}
			b.WriteString("\n")
		}

		for _, fk := range table.ForeignKeys {
			fmt.Fprintf(&b, "  FOREIGN KEY %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
		}

		for _, idx := range table.Indexes {
			if idx.Unique {
				fmt.Fprintf(&b, "  UNIQUE INDEX %s\n", idx.Name)
			} else {
				fmt.Fprintf(&b, "  INDEX %s\n", idx.Name)
			}
		}

		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
