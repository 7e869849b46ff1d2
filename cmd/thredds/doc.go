/*
thredds harvests dataset metadata from a THREDDS catalog server.

It walks the catalog tree below a server URL, reads every dataset's NcML
metadata, keeps the datasets that share the first dataset's dimensions and
variables, fetches selected coordinate values over OPeNDAP and writes the
result as a JSON index for the plotting front-end.

# Usage

	thredds <command> [options]

# Commands

	harvest    Crawl catalogs and write a dataset index
	stats      Show disk cache statistics
	inspect    Print the schema and size of a saved index
	version    Show version information

# Configuration

Every harvest flag can also be set in ./thredds.yaml (or the file named by
--config) or through THREDDS_* environment variables, with dashes replaced by
underscores:

	THREDDS_CACHE_DIR=/var/cache/thredds thredds harvest http://eos.scc.kit.edu/ index.json

# Harvesting

	thredds harvest http://eos.scc.kit.edu/ index.json
	thredds harvest --base-folder icon/ http://eos.scc.kit.edu/ index.json
	thredds harvest --dataset-include DOM01 --dataset-exclude ML_00 http://eos.scc.kit.edu/ index.json
	thredds harvest --modify-timestamp excel http://eos.scc.kit.edu/ index.json

Fetched catalogs and NcML documents are kept under --cache-dir (default
.cache), so a second run against the same server is served locally. Use
--force-remote to refresh them, or --cache-backend redis to share a cache
between machines.
*/
package main
