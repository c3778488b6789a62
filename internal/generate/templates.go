package generate

import "github.com/samansalari/seenovate-appforge/internal/workspace"

// marker is the project marker file the Process Supervisor and the
// Generation Pipeline both check for before treating a workspace as
// initialized.
const marker = "package.json"

// starterTemplates maps a requested template name to the minimal file set
// materialized into a fresh workspace before any AI work happens. Unknown
// or empty template names fall back to "blank".
var starterTemplates = map[string]map[string]string{
	"react-vite": {
		"package.json": `{
  "name": "workspace-app",
  "private": true,
  "scripts": {
    "dev": "vite --host 0.0.0.0",
    "build": "vite build"
  },
  "dependencies": {
    "react": "^18.3.1",
    "react-dom": "^18.3.1"
  },
  "devDependencies": {
    "vite": "^5.4.0",
    "@vitejs/plugin-react": "^4.3.1"
  }
}
`,
		"index.html": `<!doctype html>
<html>
  <head><meta charset="utf-8" /><title>App</title></head>
  <body>
    <div id="root"></div>
    <script type="module" src="/src/main.jsx"></script>
  </body>
</html>
`,
		"src/main.jsx": `import React from "react";
import { createRoot } from "react-dom/client";
import App from "./App.jsx";

createRoot(document.getElementById("root")).render(<App />);
`,
		"src/App.jsx": `export default function App() {
  return <h1>New app</h1>;
}
`,
	},
	"blank": {
		"package.json": `{
  "name": "workspace-app",
  "private": true,
  "scripts": {
    "dev": "node server.js"
  }
}
`,
		"server.js": `const http = require("http");
const port = process.env.PORT || 3000;
http
  .createServer((req, res) => res.end("hello"))
  .listen(port);
`,
	},
}

// needsInit reports whether a workspace has no project marker yet, per the
// Generation Pipeline's precondition check.
func needsInit(store *workspace.Store) bool {
	ok, err := store.Exists(marker)
	return err != nil || !ok
}

// materializeTemplate writes the starter file set for the named template
// (falling back to "blank") into an empty workspace.
func materializeTemplate(store *workspace.Store, template string) error {
	files, ok := starterTemplates[template]
	if !ok {
		files = starterTemplates["blank"]
	}
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}
