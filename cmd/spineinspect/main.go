package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"spine-renderer/internal/skel"
)

func main() {
	version := flag.String("version", "4.1", "Skeleton version: 3.8 or 4.1")
	dump := flag.String("dump", "", "Dump one animation's timelines (or \"bones\", \"slots\")")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: spineinspect [-version 4.1] [-dump name] <file.atlas> <skeleton>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	v, err := skel.ParseVersion(*version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	def, err := skel.Load(flag.Arg(0), flag.Arg(1), v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *dump != "" {
		cfg := spew.NewDefaultConfig()
		cfg.DisableCapacities = true
		cfg.DisablePointerAddresses = true
		switch *dump {
		case "bones":
			cfg.Dump(def.Bones)
		case "slots":
			cfg.Dump(def.Slots)
		default:
			a := def.FindAnimation(*dump)
			if a == nil {
				fmt.Fprintf(os.Stderr, "Error: animation %q not found\n", *dump)
				os.Exit(1)
			}
			cfg.Dump(a)
		}
		return
	}

	fmt.Printf("Skeleton: %s (spine %s, hash %s)\n", def.Name, def.SpineVersion, def.Hash)
	fmt.Printf("  Size: %.1f x %.1f at (%.1f, %.1f)\n", def.Width, def.Height, def.X, def.Y)

	if def.Atlas != nil {
		fmt.Printf("Pages: %d, Regions: %d\n", len(def.Atlas.Pages), len(def.Atlas.Regions))
		for _, p := range def.Atlas.Pages {
			fmt.Printf("  %s: %dx%d %s pma=%v\n", p.Name, p.Width, p.Height, p.Format, p.PMA)
		}
	}

	fmt.Printf("Bones: %d\n", len(def.Bones))
	for _, b := range def.Bones {
		parent := "-"
		if b.Parent >= 0 {
			parent = def.Bones[b.Parent].Name
		}
		fmt.Printf("  %-24s parent=%-16s pos=(%.1f, %.1f) rot=%.1f\n", b.Name, parent, b.X, b.Y, b.Rotation)
	}

	fmt.Printf("Slots: %d\n", len(def.Slots))
	for _, s := range def.Slots {
		fmt.Printf("  %-24s bone=%-16s attachment=%q blend=%s\n", s.Name, def.Bones[s.Bone].Name, s.Attachment, s.Blend)
	}

	fmt.Printf("Skins: %d\n", len(def.Skins))
	for _, skin := range def.Skins {
		counts := map[string]int{}
		skin.Each(func(_ int, _ string, a skel.Attachment) {
			counts[a.Kind().String()]++
		})
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Printf("  %-24s attachments=%d", skin.Name, skin.Len())
		for _, k := range kinds {
			fmt.Printf(" %s=%d", k, counts[k])
		}
		fmt.Println()
	}

	fmt.Printf("Animations: %d\n", len(def.Animations))
	for _, a := range def.Animations {
		drawOrder := 0
		if a.DrawOrder != nil {
			drawOrder = 1
		}
		fmt.Printf("  %-24s %.3fs bones=%d colors=%d attachments=%d deforms=%d drawOrder=%d\n",
			a.Name, a.Duration, len(a.Bones), len(a.Colors), len(a.Attachments), len(a.Deforms), drawOrder)
	}
}
