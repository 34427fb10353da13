package main

// Drivers of the gocloud URLs the settings may name.
import (
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	_ "gocloud.dev/docstore/memdocstore"
	_ "gocloud.dev/pubsub/mempubsub"
)
