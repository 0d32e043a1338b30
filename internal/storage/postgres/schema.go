package postgres

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address    text PRIMARY KEY,
	owner      text NOT NULL,
	funder     text NOT NULL,
	data       bytea NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS mints (
	address    text PRIMARY KEY,
	decimals   smallint NOT NULL,
	supply     numeric(20,0) NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS token_accounts (
	address    text PRIMARY KEY,
	mint       text NOT NULL,
	owner      text NOT NULL,
	amount     numeric(20,0) NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`
