// Package cloudlog takes care of setting up a Google Cloud logger.
package cloudlog

import (
	"context"
	"log"

	logging "cloud.google.com/go/logging"
)

var (
	// Logger is an already set up instance of *log.Logger
	Logger *log.Logger

	working bool
)

// Init connects the package to Cloud Logging for the given project. Until it
// is called (or if it fails, e.g. when running locally without credentials)
// every proxy below writes to the standard logger only.
func Init(projectID, logName string) {
	if projectID == "" {
		log.Print("No project id set, logging locally only")
		return
	}
	client, err := logging.NewClient(context.Background(), projectID)
	if err != nil {
		log.Print("Failed to create logging client")
		return
	}

	Logger = client.Logger(logName).StandardLogger(logging.Info)
	working = true
}

// Print is a proxy for Logger.Print
func Print(v ...interface{}) {
	log.Print(v...)
	if working {
		Logger.Print(v...)
	}
}

// Println is a proxy for Logger.Println
func Println(v ...interface{}) {
	log.Println(v...)
	if working {
		Logger.Println(v...)
	}
}

// Printf is a proxy for Logger.Printf
func Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
	if working {
		Logger.Printf(format, v...)
	}
}

// Fatal is a proxy for Logger.Fatal
func Fatal(v ...interface{}) {
	if working {
		Logger.Fatal(v...)
	}
	log.Fatal(v...)
}

// Fatalf is a proxy for Logger.Fatalf
func Fatalf(format string, v ...interface{}) {
	if working {
		Logger.Fatalf(format, v...)
	}
	log.Fatalf(format, v...)
}
