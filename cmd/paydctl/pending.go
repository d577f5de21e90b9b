package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codegangsta/cli"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sahelpay/payd/pkg/payd/txn"
)

const pendingCommandDescription = `This command inspects and clears persisted pending transactions.`

var pendingCommand = cli.Command{
	Name:        "pending",
	ShortName:   "p",
	Usage:       "Pending transaction tools.",
	Description: pendingCommandDescription,
	Subcommands: []cli.Command{
		showPendingCommand,
		clearPendingCommand,
	},
}

var showPendingCommand = cli.Command{
	Name:      "show",
	ShortName: "s",
	Usage:     "Show the persisted pending transaction for an invoice.",
	Action:    showPendingAction,
}

var clearPendingCommand = cli.Command{
	Name:      "clear",
	ShortName: "c",
	Usage:     "Clear the persisted pending transaction for an invoice.",
	Action:    clearPendingAction,
}

func openPaymentDB(c *cli.Context) *sql.DB {
	if !readConfig(c) {
		return nil
	}
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fmt.Printf("error opening payment DB: %v\n", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		fmt.Printf("error connecting to payment DB: %v\n", err)
		db.Close()
		return nil
	}
	return db
}

func invoiceIDArg(c *cli.Context, cmd string) string {
	invoiceID := c.Args().First()
	if invoiceID == "" {
		fmt.Print("no invoice id provided\n\n")
		cli.ShowCommandHelp(c, cmd)
	}
	return invoiceID
}

func showPendingAction(c *cli.Context) {
	invoiceID := invoiceIDArg(c, "s")
	if invoiceID == "" {
		return
	}
	db := openPaymentDB(c)
	if db == nil {
		return
	}
	defer db.Close()

	rec, err := txn.PendingByInvoiceDB(context.Background(), db, invoiceID)
	if err == txn.ErrNoPending {
		fmt.Printf("no pending transaction for invoice %s.\n", invoiceID)
		return
	}
	if err != nil {
		fmt.Printf("error loading pending transaction: %v\n", err)
		return
	}
	fmt.Printf("invoice:        %s\n", rec.InvoiceID)
	fmt.Printf("transaction:    %s\n", rec.TransactionID)
	fmt.Printf("method:         %s\n", rec.Method)
	fmt.Printf("phone:          %s\n", rec.PhoneNumber)
	fmt.Printf("created at:     %s\n", rec.CreatedAt)
	fmt.Printf("expires at:     %s\n", rec.ExpiresAt)
	fmt.Printf("check count:    %d\n", rec.CheckCount)
	if !rec.LastCheckAt.IsZero() {
		fmt.Printf("last check at:  %s\n", rec.LastCheckAt)
	}
}

func clearPendingAction(c *cli.Context) {
	invoiceID := invoiceIDArg(c, "c")
	if invoiceID == "" {
		return
	}
	db := openPaymentDB(c)
	if db == nil {
		return
	}
	defer db.Close()

	if err := txn.DeletePendingDB(context.Background(), db, invoiceID); err != nil {
		fmt.Printf("error clearing pending transaction: %v\n", err)
		return
	}
	fmt.Printf("pending transaction for invoice %s cleared.\n", invoiceID)
}
