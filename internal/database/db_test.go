package database

import "testing"

func TestOptionsDSN(t *testing.T) {
	t.Parallel()

	t.Run("with password", func(t *testing.T) {
		o := Options{User: "app", Pass: "s3cret", Host: "db", Port: "3306", Name: "tickets"}
		want := "app:s3cret@tcp(db:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC"
		if got := o.dsn(); got != want {
			t.Fatalf("dsn = %q, want %q", got, want)
		}
	})
	t.Run("passwordless local account", func(t *testing.T) {
		o := Options{User: "root", Host: "127.0.0.1", Port: "3306", Name: "tickets"}
		want := "root@tcp(127.0.0.1:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC"
		if got := o.dsn(); got != want {
			t.Fatalf("dsn = %q, want %q", got, want)
		}
	})
}
