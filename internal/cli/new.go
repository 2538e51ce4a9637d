package cli

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:templates
var templatesFS embed.FS

// HandleNew creates a new script project from the embedded template.
// Usage: zeno new <project-name>
func HandleNew(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zeno new <project-name>")
		os.Exit(1)
	}
	projectName := args[0]

	fmt.Printf("\n📦 Creating new Zeno project in ./%s...\n", projectName)
	if err := Scaffold(filepath.Join(".", projectName)); err != nil {
		fmt.Printf("❌ Failed to scaffold project: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Project created successfully!")
	fmt.Println("\nNext steps:")
	fmt.Printf("  cd %s\n", projectName)
	fmt.Println("  zeno run main.zl")
	fmt.Println("  zeno test")
}

// Scaffold copies the project template into targetDir, which must not
// exist yet. .env.example is also written as .env.
func Scaffold(targetDir string) error {
	if _, err := os.Stat(targetDir); !os.IsNotExist(err) {
		return fmt.Errorf("directory '%s' already exists", targetDir)
	}

	const srcPrefix = "templates/project"
	err := fs.WalkDir(templatesFS, srcPrefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, _ := filepath.Rel(srcPrefix, path)
		if relPath == "." {
			return os.MkdirAll(targetDir, 0755)
		}
		targetPath := filepath.Join(targetDir, relPath)

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0755)
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return err
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(targetPath, content, 0644)
	})
	if err != nil {
		return err
	}

	// Post-processing: .env setup
	content, err := os.ReadFile(filepath.Join(targetDir, ".env.example"))
	if err != nil {
		return nil
	}
	return os.WriteFile(filepath.Join(targetDir, ".env"), content, 0644)
}
