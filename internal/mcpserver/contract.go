package mcpserver

// FrontMatterContract describes the front matter fields the indexer reads
// and how they shape the recent-updates listing.
const FrontMatterContract = `# Front Matter Contract

A Markdown file is a page only when it starts with a front matter block.
Files without one are static files and never appear in any listing.

## Structure

` + "```" + `markdown
---
title: Getting started          # REQUIRED to be listed; blank titles are skipped
date: 2025-07-20 10:30:00 -0700 # OPTIONAL; missing means "updated at build time"
description: One-line summary   # OPTIONAL; shown next to the link
permalink: /start/              # OPTIONAL; overrides the URL derived from the path
published: true                 # OPTIONAL; false hides the page entirely
---
` + "```" + `

TOML front matter between ` + "`+++`" + ` fences is read the same way.

## Dates

Accepted forms: ` + "`2006-01-02`" + `, ` + "`2006-01-02 15:04`" + `, ` + "`2006-01-02 15:04:05`" + `,
` + "`2006-01-02 15:04:05 -0700`" + ` and RFC 3339. Dates without an offset are read in
the site time zone. An unreadable date is treated as missing.

## URLs

- ` + "`docs/guide.md`" + ` is published at ` + "`/docs/guide.html`" + `
- ` + "`docs/index.md`" + ` is published at ` + "`/docs/`" + `
- directories starting with ` + "`_`" + ` or ` + "`.`" + ` are not scanned

## Listing rules

- The flat list shows the 20 most recent pages, newest first.
  Descriptions are cut to 100 characters; a missing one reads "No description available".
- The monthly list shows the 6 most recent months. Descriptions are cut to 80
  characters and omitted when missing.
- The 404 page, the listing page itself, the site root, the feed and the sitemap
  are never listed.
`
