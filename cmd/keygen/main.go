// Command keygen issues or renews a shop's license key from the operator's
// machine, using the same database and LICENSE_ENCRYPTION_KEY as the server.
//
//	keygen -shop 3 -months 12
//	keygen -shop 3 -until 2027-03-31
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/config"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/license"
)

func main() {
	shopID := flag.Uint("shop", 0, "shop id to license")
	months := flag.Int("months", 0, "validity in months from today")
	until := flag.String("until", "", "last valid day, YYYY-MM-DD (overrides -months)")
	flag.Parse()

	validUntil, err := license.Expiry(*until, *months, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Database unavailable: ", err)
	}

	gate := license.NewGate(db, auth.NewLicenseCodec(cfg.LicenseEncryptionKey))
	key, lic, err := gate.Issue(context.Background(), uint(*shopID), validUntil)
	if err != nil {
		log.Fatal("Could not issue license: ", err)
	}

	fmt.Printf("Shop:        %d\n", lic.ShopID)
	fmt.Printf("Valid until: %s\n", lic.ValidUntil.UTC().Format(time.DateOnly))
	fmt.Printf("License key: %s\n", key)
}
