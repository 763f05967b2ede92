package dbmanager

import (
	"context"
	"fmt"
)

// fetchClickHouseSchema introspects the current database via the system
// tables. ClickHouse has no foreign keys; only primary-key membership is
// reported per column.
func fetchClickHouseSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	schema := &SchemaInfo{Tables: make(map[string]TableSchema)}

	var tables []string
	tableQuery := `
        SELECT name
        FROM system.tables
        WHERE database = currentDatabase()
        AND NOT is_temporary
        AND engine NOT LIKE 'System%'
        ORDER BY name;
    `
	if err := queryRows(ctx, conn, &tables, tableQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %v", err)
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		columns, err := fetchClickHouseColumns(ctx, conn, table)
		if err != nil {
			return nil, err
		}

		schema.TableOrder = append(schema.TableOrder, table)
		schema.Tables[table] = TableSchema{
			Name:    table,
			Columns: columns,
		}
	}

	return schema, nil
}

func fetchClickHouseColumns(ctx context.Context, conn *Conn, table string) ([]ColumnInfo, error) {
	var columnList []struct {
		Name              string `gorm:"column:name"`
		Type              string `gorm:"column:type"`
		DefaultExpression string `gorm:"column:default_expression"`
		IsInPrimaryKey    uint8  `gorm:"column:is_in_primary_key"`
	}

	query := `
        SELECT
            name,
            type,
            default_expression,
            is_in_primary_key
        FROM system.columns
        WHERE database = currentDatabase()
        AND table = ?
        ORDER BY position;
    `
	if err := queryRows(ctx, conn, &columnList, query, table); err != nil {
		return nil, fmt.Errorf("failed to fetch columns for table %s: %v", table, err)
	}

	columns := make([]ColumnInfo, 0, len(columnList))
	for _, col := range columnList {
		columns = append(columns, ColumnInfo{
			Name:       col.Name,
			Type:       col.Type,
			Nullable:   isClickHouseNullable(col.Type),
			Default:    col.DefaultExpression,
			PrimaryKey: col.IsInPrimaryKey == 1,
		})
	}
	return columns, nil
}

func isClickHouseNullable(columnType string) bool {
	return len(columnType) > 9 && columnType[:9] == "Nullable("
}
