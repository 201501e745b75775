// signatures2bigquery loads a signature table written by gopca or
// extractsignatures into a BigQuery table.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/gopca"
	_ "github.com/carbocation/gopca/compileinfoprint"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

type WrappedBigQuery struct {
	Context context.Context
	Client  *bigquery.Client
	Project string
	Dataset string
}

func main() {
	var (
		BQ = &WrappedBigQuery{}
	)
	var tableFile, destination string
	var appendRows bool
	var maxLength int

	flag.StringVar(&tableFile, "table", "", "Path to a signature table. May be a gs:// path and may be compressed.")
	flag.StringVar(&BQ.Project, "project", "", "Name of the Google Cloud project that hosts your BigQuery dataset")
	flag.StringVar(&BQ.Dataset, "dataset", "", "BigQuery dataset that receives the table")
	flag.StringVar(&destination, "destination", "", "Name of the BigQuery table to create or replace")
	flag.BoolVar(&appendRows, "append", false, "Append to the destination table instead of replacing it")
	flag.IntVar(&maxLength, "sig-max-len", 50, "Maximum length of term names in signature labels.")
	flag.Parse()

	if tableFile == "" || BQ.Project == "" || BQ.Dataset == "" || destination == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	BQ.Context = context.Background()

	client, err := gopca.NewStorageClientIfNeeded(BQ.Context, tableFile)
	if err != nil {
		log.Fatalln(err)
	}

	sigs, err := readTable(BQ.Context, tableFile, client)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Read %d signatures from %s\n", len(sigs), tableFile)

	// connect to BigQuery
	BQ.Client, err = bigquery.NewClient(BQ.Context, BQ.Project)
	if err != nil {
		log.Fatalln("Connecting to BigQuery:", err)
	}
	defer BQ.Client.Close()

	if err := load(BQ, destination, sigs, maxLength, appendRows); err != nil {
		log.Fatalln(err)
	}

	n, err := countRows(BQ, destination)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("%s.%s.%s now holds %d signatures\n", BQ.Project, BQ.Dataset, destination, n)
}

func readTable(ctx context.Context, path string, client *storage.Client) ([]signature.Signature, error) {
	rc, err := gopca.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return signature.ReadTable(rc)
}

// loadSource serializes the signatures as a tab-delimited load source whose
// columns match the table schema.
func loadSource(sigs []signature.Signature, maxLength int) (*bigquery.ReaderSource, bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(signature.Row{})
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	var buf bytes.Buffer
	if err := signature.WriteTable(&buf, sigs, maxLength); err != nil {
		return nil, nil, err
	}

	source := bigquery.NewReaderSource(&buf)
	source.SourceFormat = bigquery.CSV
	source.FieldDelimiter = "\t"
	source.SkipLeadingRows = 1
	source.Schema = schema

	return source, schema, nil
}

func load(wbq *WrappedBigQuery, destination string, sigs []signature.Signature, maxLength int, appendRows bool) error {
	source, _, err := loadSource(sigs, maxLength)
	if err != nil {
		return err
	}

	loader := wbq.Client.Dataset(wbq.Dataset).Table(destination).LoaderFrom(source)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteTruncate
	if appendRows {
		loader.WriteDisposition = bigquery.WriteAppend
	}

	job, err := loader.Run(wbq.Context)
	if err != nil {
		return pfx.Err(err)
	}
	log.Println("Started BigQuery load job", job.ID())

	status, err := job.Wait(wbq.Context)
	if err != nil {
		return pfx.Err(err)
	}

	if err := status.Err(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func countRows(wbq *WrappedBigQuery, destination string) (int64, error) {
	query := wbq.Client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s.%s.%s`", wbq.Project, wbq.Dataset, destination))
	itr, err := query.Read(wbq.Context)
	if err != nil {
		return 0, pfx.Err(err)
	}

	var values struct {
		N int64 `bigquery:"n"`
	}
	err = itr.Next(&values)
	if err == iterator.Done {
		return 0, fmt.Errorf("the row count query returned no rows")
	} else if err != nil {
		return 0, pfx.Err(err)
	}

	return values.N, nil
}
