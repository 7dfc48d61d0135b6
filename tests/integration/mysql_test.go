//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/schema"
)

var mysqlFixture = []string{
	`DROP TABLE IF EXISTS order_items, orders, products, users`,
	`CREATE TABLE users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		price DECIMAL(10, 2) NOT NULL
	)`,
	`CREATE TABLE orders (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		status ENUM('pending', 'shipped', 'delivered') NOT NULL DEFAULT 'pending',
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE order_items (
		order_id INT NOT NULL,
		product_id INT NOT NULL,
		quantity INT NOT NULL,
		PRIMARY KEY (order_id, product_id),
		FOREIGN KEY (order_id) REFERENCES orders(id),
		FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
}

// mysqlDSN loads the fixture into the database named by MYSQL_TEST_URL
func mysqlDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_URL")
	if dsn == "" {
		t.Skip("MYSQL_TEST_URL not set")
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to open MySQL: %v", err)
	}
	defer conn.Close()

	for _, stmt := range mysqlFixture {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("Failed to load fixture: %v", err)
		}
	}
	return dsn
}

func TestMySQLIntrospection(t *testing.T) {
	ctx := context.Background()
	dsn := mysqlDSN(t)

	models, err := schemaconv.Introspect(ctx, "mysql://"+dsn, &schemaconv.IntrospectOptions{
		Tables: fixtureTables,
	})
	if err != nil {
		t.Fatalf("Failed to introspect MySQL: %v", err)
	}
	verifyModelsExist(t, models, fixtureTables)

	verifyField(t, models, "users", schema.Field{Name: "id", Type: schema.KindNumber, IsID: true, Required: true, Unique: true})
	verifyField(t, models, "users", schema.Field{Name: "username", Type: schema.KindString, Required: true, Unique: true})
	verifyField(t, models, "users", schema.Field{Name: "active", Type: schema.KindBoolean, Required: true})
	verifyField(t, models, "users", schema.Field{Name: "created_at", Type: schema.KindDate, Required: true})
	verifyField(t, models, "products", schema.Field{Name: "price", Type: schema.KindFloat, Required: true})
	verifyEnumValues(t, models, "orders", "status", []string{"pending", "shipped", "delivered"})

	verifyRelation(t, models, "orders", "user", "users")
	verifyRelation(t, models, "order_items", "order", "orders")
	verifyRelation(t, models, "order_items", "product", "products")
}

func TestMySQLSpecificTables(t *testing.T) {
	ctx := context.Background()
	dsn := mysqlDSN(t)

	models, err := schemaconv.Introspect(ctx, "mysql://"+dsn, &schemaconv.IntrospectOptions{
		Tables: []string{"users", "orders"},
	})
	if err != nil {
		t.Fatalf("Failed to introspect MySQL: %v", err)
	}
	verifyModelsExist(t, models, []string{"users", "orders"})
	verifyRelation(t, models, "orders", "user", "users")
}
