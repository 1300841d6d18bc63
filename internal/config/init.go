package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const starterConfig = `# odadoc configuration
site:
  title: "Danish Parliament OData API"
  description: "Documentation for the Folketing open data API at oda.ft.dk"
  base_url: "https://example.org/"
  language: da
  # edit_base_url: "https://github.com/your-org/oda-docs/edit/main/docs/"

docs:
  dir: docs

output:
  directory: ./site
  clean: true

nav:
  - section: "Kom godt i gang"
    pages:
      - index.md
      - getting-started/first-request.md
  - section: "API Reference"
    pages:
      - api/sag.md
      - api/aktoer.md
      - api/afstemning.md
      - api/stemme.md

verify:
  enabled: true
  request_timeout: 10s
  max_concurrent: 10
  follow_redirects: true
  api_base: "https://oda.ft.dk/api/"
  # nats:
  #   url: "nats://localhost:4222"

serve:
  addr: 127.0.0.1:8787
  metrics: true
  # verify_interval: 6h

logging:
  level: info
  format: text
`

// starterPages is the docs skeleton matching the starter navigation, so the
// first build after init comes up without orphan warnings.
var starterPages = map[string]string{
	"index.md": `---
title: Oversigt
---
# Folketingets Åbne Data

Dokumentation for det åbne OData-API på [oda.ft.dk](https://oda.ft.dk/api/).
`,
	"getting-started/first-request.md": `---
title: Din første forespørgsel
---
# Din første forespørgsel

` + "```bash\ncurl \"https://oda.ft.dk/api/Sag?%24top=1\"\n```" + `
`,
	"api/sag.md": `---
title: Sag
---
# Sag

En sag er en parlamentarisk proces, for eksempel et lovforslag.
`,
	"api/aktoer.md": `---
title: Aktør
---
# Aktør

Personer, udvalg, ministerier og andre aktører.
`,
	"api/afstemning.md": `---
title: Afstemning
---
# Afstemning

En afstemning i folketingssalen eller et udvalg.
`,
	"api/stemme.md": `---
title: Stemme
---
# Stemme

Den enkelte aktørs stemme i en afstemning.
`,
}

// Init writes a starter configuration file and a docs skeleton for the pages
// the starter navigation references. Existing pages are never overwritten.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	docsDir := filepath.Join(filepath.Dir(path), "docs")
	for rel, content := range starterPages {
		p := filepath.Join(docsDir, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create docs skeleton: %w", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write starter page %s: %w", rel, err)
		}
	}
	return nil
}
