package dbmanager

import (
	"context"
	"fmt"
)

// fetchPostgresSchema introspects the public schema: base tables only,
// system catalogs excluded. Read-only throughout.
func fetchPostgresSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	schema := &SchemaInfo{Tables: make(map[string]TableSchema)}

	var tables []string
	tableQuery := `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = 'public'
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

		columns, err := fetchPostgresColumns(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Columns = columns

		fkeys, err := fetchPostgresForeignKeys(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.ForeignKeys = fkeys

		indexes, err := fetchPostgresIndexes(ctx, conn, table)
		if err != nil {
			return nil, err
		}
		tableSchema.Indexes = indexes

		schema.TableOrder = append(schema.TableOrder, table)
		schema.Tables[table] = tableSchema
	}

	return schema, nil
}

func fetchPostgresColumns(ctx context.Context, conn *Conn, table string) ([]ColumnInfo, error) {
	var columnList []struct {
		ColumnName    string `gorm:"column:column_name"`
		DataType      string `gorm:"column:data_type"`
		IsNullable    string `gorm:"column:is_nullable"`
		ColumnDefault string `gorm:"column:column_default"`
		IsPrimary     bool   `gorm:"column:is_primary"`
	}

	query := `
        SELECT
            c.column_name,
            c.data_type,
            c.is_nullable,
            c.column_default,
            EXISTS (
                SELECT 1
                FROM information_schema.table_constraints tc
                JOIN information_schema.key_column_usage kcu
                    ON tc.constraint_name = kcu.constraint_name
                WHERE tc.table_schema = 'public'
                AND tc.table_name = c.table_name
                AND tc.constraint_type = 'PRIMARY KEY'
                AND kcu.column_name = c.column_name
            ) AS is_primary
        FROM information_schema.columns c
        WHERE c.table_schema = 'public'
        AND c.table_name = ?
        ORDER BY c.ordinal_position;
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
			PrimaryKey: col.IsPrimary,
		})
	}
	return columns, nil
}

func fetchPostgresForeignKeys(ctx context.Context, conn *Conn, table string) ([]ForeignKey, error) {
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
            ccu.table_name AS ref_table,
            ccu.column_name AS ref_column,
            rc.update_rule AS on_update,
            rc.delete_rule AS on_delete
        FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
            ON tc.constraint_name = kcu.constraint_name
        JOIN information_schema.constraint_column_usage ccu
            ON ccu.constraint_name = tc.constraint_name
        JOIN information_schema.referential_constraints rc
            ON tc.constraint_name = rc.constraint_name
        WHERE tc.table_schema = 'public'
        AND tc.table_name = ?
        AND tc.constraint_type = 'FOREIGN KEY';
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

func fetchPostgresIndexes(ctx context.Context, conn *Conn, table string) ([]IndexInfo, error) {
	var indexList []struct {
		IndexName string `gorm:"column:indexname"`
		IsUnique  bool   `gorm:"column:is_unique"`
	}

	query := `
        SELECT
            i.relname AS indexname,
            idx.indisunique AS is_unique
        FROM pg_index idx
        JOIN pg_class i ON i.oid = idx.indexrelid
        JOIN pg_class t ON t.oid = idx.indrelid
        JOIN pg_namespace n ON n.oid = t.relnamespace
        WHERE n.nspname = 'public'
        AND t.relname = ?
        GROUP BY i.relname, idx.indisunique;
    `
	if err := queryRows(ctx, conn, &indexList, query, table); err != nil {
		return nil, fmt.Errorf("failed to fetch indexes for table %s: %v", table, err)
	}

	indexes := make([]IndexInfo, 0, len(indexList))
	for _, idx := range indexList {
		indexes = append(indexes, IndexInfo{Name: idx.IndexName, Unique: idx.IsUnique})
	}
	return indexes, nil
}
