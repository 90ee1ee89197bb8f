// Package box is the application-facing facade: declare named stores with a
// value schema, open the database, and issue typed operations that travel
// through the transaction coordinator as task descriptors.
//
// Usage Example:
//
//	db := box.New(func() engine.Engine { return memdb.New() }, "app", 1)
//
//	user, err := db.Create("user", schema.Schema{
//		"id":   {Type: schema.TypeNumber, Key: true},
//		"name": {Type: schema.TypeString, Index: true},
//		"age":  {Type: schema.TypeNumber},
//	}, nil)
//	if err != nil {
//		return err
//	}
//
//	if err := db.Open(ctx); err != nil {
//		return err
//	}
//	defer db.Close()
//
//	key, err := user.Add(ctx, engine.Record{"id": float64(1), "name": "a", "age": float64(10)})
//
//	// bulk query: range over an index plus predicates
//	adults, err := user.Find(engine.RangeLowerBound("a", false).On("name"),
//		func(r engine.Record) bool { return r["age"].(float64) >= 18 },
//	).Order(engine.Asc).Limit(10).Get(ctx)
//
//	// atomic batch
//	t1, _ := user.PutTask(engine.Record{"id": float64(1), "name": "b", "age": float64(11)})
//	t2, _ := user.DeleteTask(float64(2))
//	err = db.RunAll(ctx, t1, t2)
//
// Opening the database reconciles the declared stores against the engine's
// live structure whenever the version changed (see the migration package);
// model declarations are rejected after open. Connection lifecycle events
// (versionchange, error, abort, close) are observable through On, and the
// listener registry lives exactly as long as the connection.
//
// Only one session per DB value is modeled: Open on an open database and
// any operation on a closed one fail with a CodeConcurrency error.
package box
