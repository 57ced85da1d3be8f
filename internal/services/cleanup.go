package services

import (
	"database/sql"
	"log"
	"time"
)

// CleanupService elimina registros huérfanos: tenencias, transacciones y
// compras cuyo usuario ya no existe en el directorio. Corre semanalmente y
// puede dispararse a mano desde el panel de administración.
type CleanupService struct {
	db *sql.DB
}

func NewCleanupService(db *sql.DB) *CleanupService {
	return &CleanupService{db: db}
}

// Run ejecuta un barrido de limpieza y devuelve cuántas filas se eliminaron.
func (s *CleanupService) Run() RunStats {
	start := time.Now()
	stats := RunStats{}

	queries := []string{
		`DELETE FROM holdings WHERE user_id NOT IN (SELECT id FROM users)`,
		`DELETE FROM transactions WHERE user_id NOT IN (SELECT id FROM users)`,
		`DELETE FROM copytrade_purchases WHERE user_id NOT IN (SELECT id FROM users)`,
	}

	for _, query := range queries {
		result, err := s.db.Exec(query)
		if err != nil {
			log.Printf("Error en la limpieza de huérfanos: %v", err)
			stats.Errors++
			continue
		}
		affected, err := result.RowsAffected()
		if err != nil {
			stats.Errors++
			continue
		}
		stats.Processed += int(affected)
	}

	stats.Duration = time.Since(start)
	if stats.Processed > 0 {
		log.Printf("Limpieza de huérfanos: %d filas eliminadas en %v", stats.Processed, stats.Duration)
	}
	return stats
}
