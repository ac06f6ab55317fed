// Command admin generates activation files for distribution to schools.
// It is the issuer-side counterpart of the in-app activation import.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yrlschool/yrl-school/internal/license"
	"github.com/yrlschool/yrl-school/internal/schema"
)

func main() {
	log.SetFlags(0)

	schoolName := flag.String("school", "", "school name (required)")
	wilaya := flag.String("wilaya", "", "wilaya (required)")
	commune := flag.String("commune", "", "commune (required)")
	direction := flag.String("direction", "", "education direction name")
	year := flag.String("year", schema.DefaultSchoolYear, "school year")
	expiry := flag.String("expiry", "", "license expiry date (YYYY-MM-DD, empty for none)")
	out := flag.String("o", "", "output file (default stdout)")
	plain := flag.Bool("plain", false, "write plain JSON instead of the encoded format")
	flag.Parse()

	if *schoolName == "" || *wilaya == "" || *commune == "" {
		flag.Usage()
		os.Exit(2)
	}

	settings := schema.SchoolSettings{
		SchoolName:    *schoolName,
		Wilaya:        *wilaya,
		Commune:       *commune,
		DirectionName: *direction,
		SchoolYear:    *year,
		ExpiryDate:    *expiry,
	}

	var content string
	if *plain {
		if err := schema.ValidateSettings(settings); err != nil {
			log.Fatalf("invalid settings: %v", err)
		}
		raw, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			log.Fatalf("serialize failed: %v", err)
		}
		content = string(raw)
	} else {
		encoded, err := license.GenerateActivationFile(settings)
		if err != nil {
			log.Fatalf("invalid settings: %v", err)
		}
		content = encoded
	}

	if *out == "" {
		fmt.Println(content)
		return
	}
	if err := os.WriteFile(*out, []byte(content+"\n"), 0o644); err != nil {
		log.Fatalf("writing %s failed: %v", *out, err)
	}
	log.Printf("wrote %s", *out)
}
