package catalog

// Builtin returns the static catalog shipped with schemactl: the content
// management tables installed when no catalog file is given. The list is in
// dependency order and reflects the final shape of the schema; historical
// deltas live in the migration steps.
func Builtin() *Catalog {
	return New(
		nodeTable(),
		contentTypeTable(),
		contentTable(),
		contentVersionTable(),
		appUserTable(),
		userGroupTable(),
		userGroupMemberTable(),
	)
}

// BuiltinSeeds returns the baseline rows a freshly installed schema needs
// before the application is usable.
func BuiltinSeeds() SeedRows {
	return SeedRows{
		"user_group": {
			{"id": 1, "alias": "admin", "name": "Administrators"},
			{"id": 2, "alias": "editor", "name": "Editors"},
		},
		"app_user": {
			{"id": 1, "name": "admin", "email": "admin@localhost", "locked": false},
		},
		"user_group_member": {
			{"user_id": 1, "group_id": 1},
		},
	}
}

func nodeTable() TableDefinition {
	const name = "node"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "uid", "varchar(36)"),
			nullable(name, "parent_id", "integer"),
			column(name, "level", "integer"),
			column(name, "path", "varchar(255)"),
			column(name, "sort_order", "integer"),
			column(name, "trashed", "boolean"),
			column(name, "created_at", "timestamp"),
		},
		PrimaryKey: primaryKey(name, "id"),
		Indexes: []IndexDefinition{
			{Name: IndexName(name, "parent_id"), TableName: name, Columns: []string{"parent_id"}},
			{Name: IndexName(name, "uid"), TableName: name, Columns: []string{"uid"}, Unique: true},
		},
		ForeignKeys: []ForeignKeyDefinition{
			foreignKey(name, "parent_id", name, "id"),
		},
	}
}

func contentTypeTable() TableDefinition {
	const name = "content_type"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "node_id", "integer"),
			column(name, "alias", "varchar(255)"),
			nullable(name, "icon", "varchar(255)"),
		},
		PrimaryKey: primaryKey(name, "id"),
		Indexes: []IndexDefinition{
			{Name: IndexName(name, "alias"), TableName: name, Columns: []string{"alias"}, Unique: true},
		},
		ForeignKeys: []ForeignKeyDefinition{
			foreignKey(name, "node_id", "node", "id"),
		},
	}
}

func contentTable() TableDefinition {
	const name = "content"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "node_id", "integer"),
			column(name, "content_type_id", "integer"),
			column(name, "published", "boolean"),
			column(name, "created_by", "integer"),
		},
		PrimaryKey: primaryKey(name, "id"),
		ForeignKeys: []ForeignKeyDefinition{
			foreignKey(name, "node_id", "node", "id"),
			foreignKey(name, "content_type_id", "content_type", "id"),
		},
	}
}

func contentVersionTable() TableDefinition {
	const name = "content_version"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "content_id", "integer"),
			nullable(name, "author_id", "integer"),
			column(name, "version_date", "timestamp"),
			column(name, "current", "boolean"),
		},
		PrimaryKey: primaryKey(name, "id"),
		Indexes: []IndexDefinition{
			{Name: IndexName(name, "content_id"), TableName: name, Columns: []string{"content_id"}},
		},
		ForeignKeys: []ForeignKeyDefinition{
			foreignKey(name, "content_id", "content", "id"),
		},
	}
}

func appUserTable() TableDefinition {
	const name = "app_user"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "name", "varchar(255)"),
			column(name, "email", "varchar(255)"),
			column(name, "locked", "boolean"),
		},
		PrimaryKey: primaryKey(name, "id"),
		Indexes: []IndexDefinition{
			{Name: IndexName(name, "email"), TableName: name, Columns: []string{"email"}, Unique: true},
		},
	}
}

func userGroupTable() TableDefinition {
	const name = "user_group"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			identity(name, "id"),
			column(name, "alias", "varchar(255)"),
			column(name, "name", "varchar(255)"),
		},
		PrimaryKey: primaryKey(name, "id"),
		Indexes: []IndexDefinition{
			{Name: IndexName(name, "alias"), TableName: name, Columns: []string{"alias"}, Unique: true},
		},
	}
}

func userGroupMemberTable() TableDefinition {
	const name = "user_group_member"
	return TableDefinition{
		Name: name,
		Columns: []ColumnDefinition{
			column(name, "user_id", "integer"),
			column(name, "group_id", "integer"),
		},
		PrimaryKey: &PrimaryKeyDefinition{
			Name:      PrimaryKeyName(name),
			TableName: name,
			Columns:   []string{"user_id", "group_id"},
		},
		ForeignKeys: []ForeignKeyDefinition{
			foreignKey(name, "user_id", "app_user", "id"),
			foreignKey(name, "group_id", "user_group", "id"),
		},
	}
}

func column(table, name, dataType string) ColumnDefinition {
	return ColumnDefinition{Name: name, TableName: table, DataType: dataType}
}

func nullable(table, name, dataType string) ColumnDefinition {
	return ColumnDefinition{Name: name, TableName: table, DataType: dataType, Nullable: true}
}

func identity(table, name string) ColumnDefinition {
	return ColumnDefinition{Name: name, TableName: table, DataType: "integer", Identity: true}
}

func primaryKey(table string, columns ...string) *PrimaryKeyDefinition {
	return &PrimaryKeyDefinition{Name: PrimaryKeyName(table), TableName: table, Columns: columns}
}

func foreignKey(table, column, referenced, referencedColumn string) ForeignKeyDefinition {
	return ForeignKeyDefinition{
		Name:              ForeignKeyName(table, referenced),
		TableName:         table,
		Columns:           []string{column},
		ReferencedTable:   referenced,
		ReferencedColumns: []string{referencedColumn},
	}
}
