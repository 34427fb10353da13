// Package sensortwin maintains digital twins of IoT devices; A digital twin is
// an aggregated record mirroring the sensor readings a physical device reports,
// together with the operations and dashboards those readings support.
//
// Which readings a device may report is decided by an ontology (see the
// ontology package): a hierarchy of sensor classes related by superclass edges.
// A device typed by a class accepts readings of that class, of its ancestors
// and of its descendants. Devices may instead be typed by a DeviceTemplate, or
// be left untyped; the DeviceType of a Device says which.
//
// The Service validates devices once, when they enter the system, and keeps
// their digital twins in a Store of document collections. Readings reach a
// digital twin through the Service directly or by streaming ReadingReported
// messages to IngestReadings; accepted readings are announced as
// ReadingAccepted messages, which TrackReadings folds into a LatestReadings
// view.
package sensortwin
