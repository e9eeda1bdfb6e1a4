// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	pair TEXT NOT NULL,
	dataset TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config BLOB,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	investment REAL NOT NULL,
	final_value REAL NOT NULL,
	interest_cost REAL NOT NULL,
	fees_cost REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	round_trips INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	time INTEGER NOT NULL,
	action TEXT NOT NULL,
	reason TEXT NOT NULL,
	execution_price REAL NOT NULL,
	effective_price REAL NOT NULL,
	shares REAL NOT NULL,
	fee REAL NOT NULL,
	borrowed REAL NOT NULL,
	debt REAL NOT NULL,
	cash REAL NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_values (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	time INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
