package dbmanager

import (
	"context"
	"fmt"
	"strings"
)

// fetchSQLiteSchema introspects the embedded store via sqlite_master and the
// table PRAGMAs. sqlite internal tables are excluded.
func fetchSQLiteSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	schema := &SchemaInfo{Tables: make(map[string]TableSchema)}

	var tables []string
	tableQuery := `
        SELECT name
        FROM sqlite_master
        WHERE type = 'table'
        AND name NOT LIKE 'sqlite_%'
        ORDER BY name;
    `
	if err := queryRows(ctx, conn, &tables, tableQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %v", err)
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tableSchema := TableSchema{Name: table}

		columns, err := fetchSQLiteColumns(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Columns = columns

		fkeys, err := fetchSQLiteForeignKeys(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.ForeignKeys = fkeys

		indexes, err := fetchSQLiteIndexes(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Indexes = indexes

		schema.TableOrder = append(schema.TableOrder, table)
		schema.Tables[table] = tableSchema
	}

	return schema, nil
}

// quoteSQLiteIdent escapes a table name for PRAGMA calls, which cannot be
// parameterized
func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func fetchSQLiteColumns(ctx context.Context, conn *Conn, table string) ([]ColumnInfo, error) {
	var columnList []struct {
		Name         string `gorm:"column:name"`
		Type         string `gorm:"column:type"`
		NotNull      int    `gorm:"column:notnull"`
		DefaultValue string `gorm:"column:dflt_value"`
		PK           int    `gorm:"column:pk"`
	}

	query := fmt.Sprintf("PRAGMA table_info(%s);", quoteSQLiteIdent(table))
	if err := queryRows(ctx, conn, &columnList, query); err != nil {
		return nil, fmt.Errorf("failed to fetch columns for table %s: %v", table, err)
	}

	columns := make([]ColumnInfo, 0, len(columnList))
	for _, col := range columnList {
		columns = append(columns, ColumnInfo{
			Name:       col.Name,
			Type:       col.Type,
			Nullable:   col.NotNull == 0,
			Default:    col.DefaultValue,
			PrimaryKey: col.PK > 0,
		})
	}
	return columns, nil
}

func fetchSQLiteForeignKeys(ctx context.Context, conn *Conn, table string) ([]ForeignKey, error) {
	var fkList []struct {
		Table    string `gorm:"column:table"`
		From     string `gorm:"column:from"`
		To       string `gorm:"column:to"`
		OnUpdate string `gorm:"column:on_update"`
		OnDelete string `gorm:"column:on_delete"`
	}

	query := fmt.Sprintf("PRAGMA foreign_key_list(%s);", quoteSQLiteIdent(table))
	if err := queryRows(ctx, conn, &fkList, query); err != nil {
		return nil, fmt.Errorf("failed to fetch foreign keys for table %s: %v", table, err)
	}

	fkeys := make([]ForeignKey, 0, len(fkList))
	for _, fk := range fkList {
		fkeys = append(fkeys, ForeignKey{
			Column:    fk.From,
			RefTable:  fk.Table,
			RefColumn: fk.To,
			OnUpdate:  fk.OnUpdate,
			OnDelete:  fk.OnDelete,
		})
	}
	return fkeys, nil
}

func fetchSQLiteIndexes(ctx context.Context, conn *Conn, table string) ([]IndexInfo, error) {
	var indexList []struct {
		Name   string `gorm:"column:name"`
		Unique int    `gorm:"column:unique"`
	}

	query := fmt.Sprintf("PRAGMA index_list(%s);", quoteSQLiteIdent(table))
	if err := queryRows(ctx, conn, &indexList, query); err != nil {
		return nil, fmt.Errorf("failed to fetch indexes for table %s: %v", table, err)
	}

	indexes := make([]IndexInfo, 0, len(indexList))
	for _, idx := range indexList {
		indexes = append(indexes, IndexInfo{Name: idx.Name, Unique: idx.Unique == 1})
	}
	return indexes, nil
}
