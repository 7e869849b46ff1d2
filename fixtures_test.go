package thredds

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// rootCatalog declares both services, one dataset and one catalog ref.
const rootCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<catalog xmlns="http://www.unidata.ucar.edu/namespaces/thredds/InvCatalog/v1.0"
         xmlns:xlink="http://www.w3.org/1999/xlink" name="root">
  <service name="all" serviceType="Compound" base="">
    <service name="odap" serviceType="OPENDAP" base="/opendap/"/>
    <service name="ncml" serviceType="NCML" base="/ncml/"/>
  </service>
  <dataset name="ds1.nc" ID="ds1" urlPath="ds1.nc">
    <dataSize units="Mbytes">12.5</dataSize>
    <catalogRef xlink:href="sub.xml" xlink:title="Sub catalog" ID="cat1"/>
  </dataset>
</catalog>`

// subCatalog declares no services and nests a dataset in a container.
const subCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<catalog xmlns="http://www.unidata.ucar.edu/namespaces/thredds/InvCatalog/v1.0"
         xmlns:xlink="http://www.w3.org/1999/xlink">
  <dataset name="container">
    <dataset name="ds2.nc" ID="ds2" urlPath="sub/ds2.nc"/>
  </dataset>
</catalog>`

// ncmlDoc renders an NcML document with a time dimension of length n.
func ncmlDoc(history string, n int, extraDims ...string) string {
	var dims strings.Builder
	for _, d := range extraDims {
		fmt.Fprintf(&dims, "  <dimension name=%q length=\"2\"/>\n", d)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<netcdf xmlns="http://www.unidata.ucar.edu/namespaces/netcdf/ncml-2.2" location="dods://example/ds.nc">
  <dimension name="time" length="%d"/>
  <dimension name="lat" length="2"/>
%s  <attribute name="title" value="ICON run"/>
  <attribute name="history" value=%q/>
  <variable name="time" shape="time" type="double">
    <attribute name="units" value="day as %%Y%%m%%d.%%f"/>
  </variable>
  <variable name="temp" shape="time lat" type="float">
    <attribute name="_FillValue" type="float" value="-999.0"/>
    <attribute name="scale" type="int" value="abc"/>
  </variable>
</netcdf>`, n, dims.String(), history)
}

const asciiTime = `Dataset {
    Float64 time[time = 3];
} ds1.nc;
---------------------------------------------
time[3]
20160330.0, 20160330.5, 20160331.25
`

// fakeServer serves fixed documents by path and counts requests.
type fakeServer struct {
	*httptest.Server

	mu    sync.Mutex
	docs  map[string]string
	hits  map[string]int
	total int
}

func newFakeServer(t *testing.T, docs map[string]string) *fakeServer {
	t.Helper()
	fs := &fakeServer{docs: docs, hits: map[string]int{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		fs.total++
		fs.mu.Unlock()
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) Hits(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}

func (fs *fakeServer) Total() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.total
}

// defaultDocs is a two-level tree with one dataset per level.
func defaultDocs() map[string]string {
	return map[string]string{
		"/catalog.xml":              rootCatalog,
		"/sub.xml":                  subCatalog,
		"/ncml/ds1.nc":              ncmlDoc("first", 3),
		"/ncml/sub/ds2.nc":          ncmlDoc("second", 3),
		"/opendap/ds1.nc.ascii":     asciiTime,
		"/opendap/sub/ds2.nc.ascii": asciiTime,
	}
}
