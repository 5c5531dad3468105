package main

// iquery runs one AFL query against a SciDB Shim endpoint.
//
//	iquery "scan(foo)"                      decode and print the output
//	iquery -n "remove(foo)"                 run without fetching output
//	iquery -lines "project(list(), name)"   save as TSV and print tokens

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/paradigm4/goscidb"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("SCIDB_DSN"),
		"Shim URL, e.g. http://localhost:8080")
	noFetch := flag.Bool("n", false, "run the query without fetching output")
	lines := flag.Bool("lines", false, "save as TSV and print whitespace separated tokens")
	attsOnly := flag.Bool("atts-only", false, "fetch attributes only, skip dimensions")
	raw := flag.Bool("raw", false, "print nullable cells as (null, val) pairs")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: iquery [-dsn URL] [-n|-lines] [-atts-only] [-raw] QUERY")
	}
	query := flag.Arg(0)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()
	go func() {
		<-c
		log.Println("Caught signal, canceling...")
		cancel()
	}()

	db, err := goscidb.Open(*dsn)
	if err != nil {
		log.Fatalf("failed to connect. %v, err: %v", *dsn, err)
	}
	defer db.Close()

	switch {
	case *noFetch:
		if err := db.Exec(ctx, query); err != nil {
			log.Fatalf("failed to run a query. %v, err: %v", query, err)
		}
		fmt.Println("Query was executed successfully")
	case *lines:
		tokens, err := db.QueryLines(ctx, query)
		if err != nil {
			log.Fatalf("failed to run a query. %v, err: %v", query, err)
		}
		for _, token := range tokens {
			fmt.Println(token)
		}
	default:
		var queryOpts []goscidb.QueryOption
		if *attsOnly {
			queryOpts = append(queryOpts, goscidb.AttsOnly())
		}
		res, err := db.Query(ctx, query, queryOpts...)
		if err != nil {
			log.Fatalf("failed to run a query. %v, err: %v", query, err)
		}
		var opts []goscidb.MaterializeOption
		if *raw {
			opts = append(opts, goscidb.WithoutNullPromotion())
		}
		record, err := res.Materialize(opts...)
		if err != nil {
			log.Fatalf("failed to materialize the result. err: %v", err)
		}
		defer record.Release()
		fmt.Printf("%v rows\n", res.NumRows())
		for i, col := range record.Columns() {
			fmt.Printf("%v: %v\n", record.ColumnName(i), col)
		}
	}
}
