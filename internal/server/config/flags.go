package config

import (
	"flag"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
)

// FlagNames lists the flags owned by the config layer.
var FlagNames = []string{"-a", "-g", "-w", "-f", "-d", "-b", "-e", "-u", "-p", "-j", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3000")
//	-g string   gRPC health bind address (empty disables it)
//	-w string   static files directory
//	-f string   data directory for the JSON files
//	-d string   PostgreSQL DSN
//	-b string   S3 bucket
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-u string   S3 user
//	-p string   S3 password
//	-j string   JWT HMAC secret
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], FlagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "address of the gRPC health endpoint")
	fs.StringVar(&config.StaticDir, "w", config.StaticDir, "static files directory")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3User, "u", config.S3User, "S3 user")
	fs.StringVar(&config.S3Password, "p", config.S3Password, "S3 password")
	fs.StringVar(&config.JWTSecret, "j", config.JWTSecret, "JWT secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
