package testutil

import (
	"github.com/roach88/hqlcore/internal/schema"
)

// MappingCUE is the mapping shared by tests across packages. It covers
// every attribute kind: basic, association, embedded, identifier, a column
// in an optional secondary table, and a formula.
const MappingCUE = `
embeddable: Address: {
	street: "varchar"
	city:   "varchar"
}

entity: Something: {
	table: "something"
	id: {name: "id", type: "bigint"}
	attributes: {
		b:     {type: "varchar"}
		c:     {type: "integer"}
		other: {target: "SomethingElse"}
	}
}

entity: SomethingElse: {
	table:     "something_else"
	qualified: "org.example.SomethingElse"
	id: {name: "id", type: "bigint"}
	attributes: {
		b:     {type: "varchar"}
		name:  {type: "varchar"}
		owner: {target: "Person"}
	}
}

entity: Person: {
	table: "person"
	id: {name: "id", type: "bigint"}
	secondary: [{table: "person_detail", key: ["person_id"], optional: true}]
	attributes: {
		name:     {type: "varchar"}
		salary:   {type: "decimal"}
		born:     {type: "timestamp"}
		active:   {type: "boolean"}
		address:  {embedded: "Address"}
		employer: {target: "Company"}
		bio:      {type: "text", table: "person_detail"}
		initials: {formula: "substr({alias}.name, 1, 1)", type: "varchar"}
	}
}

entity: Company: {
	table: "company"
	id: {name: "id", type: "bigint"}
	attributes: {
		name:   {type: "varchar"}
		rating: {type: "double"}
	}
}

constant: Status: {
	ACTIVE:  "A"
	RETIRED: "R"
}
`

// FixtureDDL creates the tables of MappingCUE in sqlite.
const FixtureDDL = `
CREATE TABLE company (id INTEGER PRIMARY KEY, name TEXT, rating REAL);
CREATE TABLE person (
	id INTEGER PRIMARY KEY, name TEXT, salary TEXT, born TIMESTAMP, active BOOLEAN,
	street TEXT, city TEXT, employer_id INTEGER REFERENCES company(id)
);
CREATE TABLE person_detail (person_id INTEGER PRIMARY KEY REFERENCES person(id), bio TEXT);
CREATE TABLE something_else (id INTEGER PRIMARY KEY, b TEXT, name TEXT, owner_id INTEGER REFERENCES person(id));
CREATE TABLE something (id INTEGER PRIMARY KEY, b TEXT, c INTEGER, other_id INTEGER REFERENCES something_else(id));
`

// FixtureData seeds the tables created by FixtureDDL.
const FixtureData = `
INSERT INTO company VALUES (1, 'Acme', 4.5), (2, 'Globex', 3.25);
INSERT INTO person VALUES
	(1, 'Ada', '1234.50', '2001-02-03 04:05:06', 1, 'Main St', 'Springfield', 1),
	(2, 'Brian', '99.99', '1999-12-31 23:59:59', 0, NULL, NULL, NULL);
INSERT INTO person_detail VALUES (1, 'mathematician');
INSERT INTO something_else VALUES (10, 'x', 'first', 1), (11, 'y', 'second', 2);
INSERT INTO something VALUES (100, 'alpha', 1, 10), (101, 'beta', 2, 11), (102, 'gamma', 3, NULL);
`

// MustMetadata compiles MappingCUE and panics on failure.
func MustMetadata() *schema.Metadata {
	md, err := schema.CompileString(MappingCUE)
	if err != nil {
		panic("testutil: fixture mapping: " + err.Error())
	}
	return md
}
