package migration

// getAllMigrations retorna todas as migrações disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_save_history",
			Up: `
				-- Histórico de gravações do documento de obras
				CREATE TABLE save_history (
					id SERIAL PRIMARY KEY,
					saved_at TIMESTAMP NOT NULL DEFAULT NOW(),
					record_count INTEGER NOT NULL DEFAULT 0,
					project_count INTEGER NOT NULL DEFAULT 0,
					file_path VARCHAR(500) NOT NULL,
					request_id VARCHAR(100),
					document JSONB NOT NULL
				);
			`,
			Down: `
				DROP TABLE IF EXISTS save_history;
			`,
		},
		{
			Version: 2,
			Name:    "add_save_history_indexes",
			Up: `
				CREATE INDEX idx_save_history_saved_at ON save_history(saved_at DESC);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_save_history_saved_at;
			`,
		},
	}
}
