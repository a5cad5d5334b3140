package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"maktaba-backend/internal/platform/db"
)

// 開発用の初期データ投入。既にユーザが居る場合は何もしない。
func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to DB: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx := context.Background()

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		fmt.Fprintf(os.Stderr, "Error checking users: %v\n", err)
		os.Exit(1)
	}
	if n > 0 {
		fmt.Println("Database already seeded, nothing to do.")
		return
	}

	readerID, err := seedUser(ctx, conn, "Samantha Wayne", "reader@maktaba.com", "reader", "reader123")
	if err != nil {
		fail(err)
	}
	librarianID, err := seedUser(ctx, conn, "Sandra Nyambura", "librarian@maktaba.com", "librarian", "librarian123")
	if err != nil {
		fail(err)
	}
	if _, err := seedUser(ctx, conn, "Maureen Chepkorir", "admin@maktaba.com", "admin", "admin123"); err != nil {
		fail(err)
	}
	fmt.Println("Seeded users.")

	categoryIDs := map[string]int64{}
	for _, name := range []string{
		"Psychology", "Science Fiction", "History", "Romance", "Technology", "Children's", "Mystery",
	} {
		res, err := conn.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
		if err != nil {
			fail(err)
		}
		id, _ := res.LastInsertId()
		categoryIDs[name] = id
	}
	fmt.Println("Seeded categories.")

	var firstBookID, secondBookID int64
	for i, b := range catalog {
		total := rand.Intn(5) + 1
		available := rand.Intn(total) + 1
		damaged := rand.Intn(total - available + 1)

		res, err := conn.ExecContext(ctx, `
			INSERT INTO books (title, author, total_quantity, available_quantity, damaged_quantity, created_at)
			VALUES (?, ?, ?, ?, ?, NOW(6))`,
			b.title, b.author, total, available, damaged,
		)
		if err != nil {
			fail(err)
		}
		bookID, _ := res.LastInsertId()

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO book_categories (book_id, category_id) VALUES (?, ?)`,
			bookID, categoryIDs[b.category],
		); err != nil {
			fail(err)
		}

		switch i {
		case 0:
			firstBookID = bookID
		case 1:
			secondBookID = bookID
		}
	}
	fmt.Printf("Seeded %d books.\n", len(catalog))

	// サンプルの貸出履歴: 承認済み1件（ログ付き）と保留1件
	now := time.Now()
	if err := seedRequest(ctx, conn, readerID, firstBookID, "approved", &librarianID, now); err != nil {
		fail(err)
	}
	if err := seedRequest(ctx, conn, readerID, secondBookID, "pending", nil, now); err != nil {
		fail(err)
	}
	if _, err := conn.ExecContext(ctx, `
		INSERT INTO book_logs (log_ulid, user_id, book_id, action, action_date, approved_by)
		VALUES (?, ?, ?, 'borrow', ?, ?)`,
		newULID(), readerID, firstBookID, now, librarianID,
	); err != nil {
		fail(err)
	}
	// 承認済み分のカウンタを合わせる
	if _, err := conn.ExecContext(ctx, `
		UPDATE books SET available_quantity = available_quantity - 1
		WHERE book_id = ? AND available_quantity >= 1`, firstBookID); err != nil {
		fail(err)
	}
	if _, err := conn.ExecContext(ctx, `
		UPDATE users SET current_borrowed = current_borrowed + 1
		WHERE user_id = ? AND current_borrowed < borrowing_limit`, readerID); err != nil {
		fail(err)
	}
	fmt.Println("Seeded sample requests and logs.")
}

func seedUser(ctx context.Context, conn *sql.DB, name, email, role, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, `
		INSERT INTO users (name, email, role, password_hash, borrowing_limit, current_borrowed, created_at)
		VALUES (?, ?, ?, ?, 3, 0, NOW(6))`,
		name, email, role, string(hash),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func seedRequest(ctx context.Context, conn *sql.DB, userID, bookID int64, status string, approvedBy *int64, now time.Time) error {
	var approver any
	if approvedBy != nil {
		approver = *approvedBy
	}
	_, err := conn.ExecContext(ctx, `
		INSERT INTO requests (request_ulid, user_id, book_id, status, request_date, approved_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newULID(), userID, bookID, status, now, approver,
	)
	return err
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
	os.Exit(1)
}
