package dbmanager

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	return &Conn{Type: TypePostgres, DB: gormDB}, mock
}

func TestFetchPostgresSchema(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "is_primary"}).
			AddRow("id", "integer", "NO", "nextval('users_id_seq')", true).
			AddRow("name", "text", "YES", "", false).
			AddRow("age", "integer", "YES", "", false))

	mock.ExpectQuery("FROM information_schema.table_constraints").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "ref_table", "ref_column", "on_update", "on_delete"}).
			AddRow("org_id", "orgs", "id", "NO ACTION", "CASCADE"))

	mock.ExpectQuery("FROM pg_index").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"indexname", "is_unique"}).
			AddRow("users_pkey", true).
			AddRow("users_name_idx", false))

	schema, err := fetchPostgresSchema(context.Background(), conn)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, []string{"users"}, schema.TableOrder)
	users := schema.Tables["users"]

	require.Len(t, users.Columns, 3)
	assert.Equal(t, "id", users.Columns[0].Name)
	assert.True(t, users.Columns[0].PrimaryKey)
	assert.False(t, users.Columns[0].Nullable)
	assert.True(t, users.Columns[1].Nullable)

	require.Len(t, users.ForeignKeys, 1)
	assert.Equal(t, "org_id", users.ForeignKeys[0].Column)
	assert.Equal(t, "orgs", users.ForeignKeys[0].RefTable)
	assert.Equal(t, "CASCADE", users.ForeignKeys[0].OnDelete)

	require.Len(t, users.Indexes, 2)
	assert.True(t, users.Indexes[0].Unique)
	assert.False(t, users.Indexes[1].Unique)
}

func TestFetchPostgresSchemaEmptyDatabase(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	schema, err := fetchPostgresSchema(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 0, schema.TableCount())
}

func TestSchemaSubsetKeepsOrder(t *testing.T) {
	schema := &SchemaInfo{
		TableOrder: []string{"a", "b", "c", "d"},
		Tables: map[string]TableSchema{
			"a": {Name: "a"}, "b": {Name: "b"}, "c": {Name: "c"}, "d": {Name: "d"},
		},
	}

	subset := schema.Subset([]string{"d", "b", "nope"})
	assert.Equal(t, []string{"b", "d"}, subset.TableOrder)
	assert.Len(t, subset.Tables, 2)
}

func TestFormatForPrompt(t *testing.T) {
	schema := &SchemaInfo{
		TableOrder: []string{"users"},
		Tables: map[string]TableSchema{
			"users": {
				Name: "users",
				Columns: []ColumnInfo{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "name", Type: "text", Nullable: true},
				},
				ForeignKeys: []ForeignKey{{Column: "org_id", RefTable: "orgs", RefColumn: "id"}},
				Indexes:     []IndexInfo{{Name: "users_pkey", Unique: true}},
			},
		},
	}

	text := schema.FormatForPrompt()
	assert.Contains(t, text, "TABLE users")
	assert.Contains(t, text, "id integer NOT NULL PRIMARY KEY")
	assert.Contains(t, text, "FOREIGN KEY org_id -> orgs.id")
	assert.Contains(t, text, "UNIQUE INDEX users_pkey")
}
