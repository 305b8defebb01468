// Command txchaind serves the transmission chain over HTTP and keeps a
// record of every run in SQLite or MySQL.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/cwbudde/algo-txchain/internal/server"
	"github.com/cwbudde/algo-txchain/internal/store"
)

var (
	listen   = flag.String("listen", ":8443", "")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	backend  = flag.String("store", "sqlite", "Run store to use (one of: sqlite, mysql)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/txchain.db", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "txchain", "Name of the DB to use.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()
	defer glog.Flush()

	var (
		st  *store.Store
		err error
	)
	switch strings.ToLower(*backend) {
	case "sqlite":
		st, err = store.OpenSQLite(*sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s", *mysqlPasswordFile, err)
		}
		st, err = store.OpenMySQL(store.MySQLConfig{
			Addr:     *mysqlServer,
			User:     *mysqlUser,
			Password: strings.TrimSpace(string(pass)),
			DBName:   *mysqlDBName,
		})
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
	default:
		glog.Exitf("%q is not a supported store, pick one of: sqlite, mysql", *backend)
	}
	defer st.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.New(st),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			glog.Warningf("shutdown: %v", err)
		}
	}()

	if *certFile != "" || *keyFile != "" {
		err = srv.ListenAndServeTLS(*certFile, *keyFile)
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		err = srv.ListenAndServe()
	}
	if !errors.Is(err, http.ErrServerClosed) {
		glog.Error(err)
	}
}
