// Package objstore groups imageio.Source implementations backed by object
// storage. Manifest image paths are used as object keys below a prefix.
package objstore
