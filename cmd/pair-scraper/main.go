// Command pair-scraper collects image/caption pairs, cleans them and exports datasets.
package main

func main() {
	Execute()
}
