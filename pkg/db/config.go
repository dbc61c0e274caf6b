package db

// Config carries the database connection settings resolved from the
// environment. Type selects the gorm dialect: postgres, mysql or sqlite.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	Path            string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}
