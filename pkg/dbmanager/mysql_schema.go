package dbmanager

import (
	"context"
	"fmt"
)

// fetchMySQLSchema introspects the current database via information_schema
func fetchMySQLSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	schema := &SchemaInfo{Tables: make(map[string]TableSchema)}

	var tables []string
	tableQuery := `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = DATABASE()
        AND table_type = 'BASE TABLE'
        ORDER BY table_name;
    `
	if err := queryRows(ctx, conn, &tables, tableQuery); err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %v", err)
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tableSchema := TableSchema{Name: table}

		columns, err := fetchMySQLColumns(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Columns = columns

		fkeys, err := fetchMySQLForeignKeys(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.ForeignKeys = fkeys

		indexes, err := fetchMySQLIndexes(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Indexes = indexes

		schema.TableOrder = append(schema.TableOrder, table)
		schema.Tables[table] = tableSchema
	}

	return schema, nil
}

func fetchMySQLColumns(ctx context.Context, conn *Conn, table string) ([]ColumnInfo, error) {
	var columnList []struct {
		ColumnName    string `gorm:"column:column_name"`
		DataType      string `gorm:"column:data_type"`
		IsNullable    string `gorm:"column:is_nullable"`
		ColumnDefault string `gorm:"column:column_default"`
		ColumnKey     string `gorm:"column:column_key"`
	}

	query := `
        SELECT
            column_name,
            data_type,
            is_nullable,
            column_default,
            column_key
        FROM information_schema.columns
        WHERE table_schema = DATABASE()
        AND table_name = ?
        ORDER BY ordinal_position;
    `
	if err := queryRows(ctx, conn, &columnList, query, table); err != nil {
		return nil, fmt.Errorf("failed to fetch columns for table %s: %v", table, err)
	}

	columns := make([]ColumnInfo, 0, len(columnList))
	for _, col := range columnList {
		columns = append(columns, ColumnInfo{
			Name:       col.ColumnName,
			Type:       col.DataType,
			Nullable:   col.IsNullable == "YES",
			Default:    col.ColumnDefault,
			PrimaryKey: col.ColumnKey == "PRI",
		})
	}
	return columns, nil
}

func fetchMySQLForeignKeys(ctx context.Context, conn *Conn, table string) ([]ForeignKey, error) {
	var fkList []struct {
		ColumnName string `gorm:"column:column_name"`
		RefTable   string `gorm:"column:ref_table"`
		RefColumn  string `gorm:"column:ref_column"`
		OnUpdate   string `gorm:"column:on_update"`
		OnDelete   string `gorm:"column:on_delete"`
	}

	query := `
        SELECT
            kcu.column_name,
            kcu.referenced_table_name AS ref_table,
            kcu.referenced_column_name AS ref_column,
            rc.update_rule AS on_update,
            rc.delete_rule AS on_delete
        FROM information_schema.key_column_usage kcu
        JOIN information_schema.referential_constraints rc
            ON kcu.constraint_name = rc.constraint_name
            AND kcu.constraint_schema = rc.constraint_schema
        WHERE kcu.table_schema = DATABASE()
        AND kcu.table_name = ?
        AND kcu.referenced_table_name IS NOT NULL;
    `
	if err := queryRows(ctx, conn, &fkList, query, table); err != nil {
		return nil, fmt.Errorf("failed to fetch foreign keys for table %s: %v", table, err)
	}

	fkeys := make([]ForeignKey, 0, len(fkList))
	for _, fk := range fkList {
		fkeys = append(fkeys, ForeignKey{
			Column:    fk.ColumnName,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
			OnUpdate:  fk.OnUpdate,
			OnDelete:  fk.OnDelete,
		})
	}
	return fkeys, nil
}

func fetchMySQLIndexes(ctx context.Context, conn *Conn, table string) ([]IndexInfo, error) {
	var indexList []struct {
		IndexName string `gorm:"column:index_name"`
		NonUnique int    `gorm:"column:non_unique"`
	}

	query := `
        SELECT DISTINCT
            index_name,
            non_unique
        FROM information_schema.statistics
        WHERE table_schema = DATABASE()
        AND table_name = ?;
    `
	if err := queryRows(ctx, conn, &indexList, query, table); err != nil {
		return nil, fmt.Errorf("failed to fetch indexes for table %s: %v", table, err)
	}

	indexes := make([]IndexInfo, 0, len(indexList))
	for _, idx := range indexList {
		indexes = append(indexes, IndexInfo{Name: idx.IndexName, Unique: idx.NonUnique == 0})
	}
	return indexes, nil
}
