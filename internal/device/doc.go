// Package device manages rentable devices listed on the marketplace.
//
// A device document lives in the document store (Repository) while its
// images live in an object store (objectstore.Gateway). Service keeps the
// two in step:
//
//   - Create validates the form fields, uploads the images concurrently and
//     stores the document with the returned locators
//   - Update and Delete first check that the caller owns the device
//   - Delete removes the images before the document
//
// Reads expand the owner reference through an OwnerDirectory: the device
// page shows full contact details, listings only the owner's town.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	svc := device.NewService(repo, objectstore.WithTimeout(blobs, 30*time.Second), users)
//	svc.SetLogger(log)
//	svc.AddEventHandler(publisher)
//
//	d, err := svc.Create(ctx, fields, images, callerID)
//	if errors.Is(err, device.ErrBadRequest) {
//	    // reject input
//	}
//
// There is no transaction spanning the two stores. A failed create can leave
// uploaded images behind; a failed image delete keeps the document so the
// delete can be retried.
package device
