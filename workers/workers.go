package workers

// send signal to worker loops to exit
var WorkerShutdown = false
